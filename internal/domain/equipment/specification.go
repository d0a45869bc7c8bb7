package equipment

// Category groups equipment for browsing.
type Category string

const (
	CategoryTractor    Category = "Tractor"
	CategoryHarvester  Category = "Harvester"
	CategoryPlough     Category = "Plough"
	CategorySeeder     Category = "Seeder"
	CategorySprayer    Category = "Sprayer"
	CategoryIrrigation Category = "Irrigation"
	CategoryCultivator Category = "Cultivator"
	CategoryThresher   Category = "Thresher"
	CategoryOther      Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTractor,
	CategoryHarvester,
	CategoryPlough,
	CategorySeeder,
	CategorySprayer,
	CategoryIrrigation,
	CategoryCultivator,
	CategoryThresher,
	CategoryOther,
}

// IsValid returns true if the category is recognized.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Condition describes the state of a machine as reported by its owner.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
)

// IsValid returns true if the condition is recognized.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// Specifications is an immutable value object with the machine's technical details.
type Specifications struct {
	Brand      string    `json:"brand,omitempty"`
	Model      string    `json:"model,omitempty"`
	Year       int       `json:"year,omitempty"`
	Horsepower string    `json:"horsepower,omitempty"`
	FuelType   string    `json:"fuelType,omitempty"`
	Condition  Condition `json:"condition"`
}

// withDefaults fills in the condition when the owner left it blank.
func (s Specifications) withDefaults() Specifications {
	if s.Condition == "" {
		s.Condition = ConditionGood
	}
	return s
}

// Location is where the equipment can be collected.
type Location struct {
	Village  string `json:"village,omitempty"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

// IsZero reports whether no location field is set.
func (l Location) IsZero() bool {
	return l == Location{}
}
