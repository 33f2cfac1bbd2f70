package model

// BloodType is one of the eight ABO/Rh blood groups.
type BloodType string

const (
	ONegative  BloodType = "O-"
	OPositive  BloodType = "O+"
	ANegative  BloodType = "A-"
	APositive  BloodType = "A+"
	BNegative  BloodType = "B-"
	BPositive  BloodType = "B+"
	ABNegative BloodType = "AB-"
	ABPositive BloodType = "AB+"
)

// compatibility maps a donor blood type to the recipient types it can serve
// under standard ABO/Rh rules. O- is the universal donor, AB+ the universal
// recipient.
var compatibility = map[BloodType][]BloodType{
	ONegative:  {ONegative, OPositive, ANegative, APositive, BNegative, BPositive, ABNegative, ABPositive},
	OPositive:  {OPositive, APositive, BPositive, ABPositive},
	ANegative:  {ANegative, APositive, ABNegative, ABPositive},
	APositive:  {APositive, ABPositive},
	BNegative:  {BNegative, BPositive, ABNegative, ABPositive},
	BPositive:  {BPositive, ABPositive},
	ABNegative: {ABNegative, ABPositive},
	ABPositive: {ABPositive},
}

// Valid reports whether t is a supported blood group.
func (t BloodType) Valid() bool {
	_, ok := compatibility[t]
	return ok
}

// CanDonateTo reports whether blood of type t can be transfused to a
// recipient of type to. Unknown donor types are compatible with nothing.
func (t BloodType) CanDonateTo(to BloodType) bool {
	for _, r := range compatibility[t] {
		if r == to {
			return true
		}
	}
	return false
}
