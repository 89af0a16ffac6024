package models

import "gorm.io/gorm"

// InstitutionType distinguishes schools from universities
type InstitutionType string

const (
	InstitutionTypeSchool     InstitutionType = "school"
	InstitutionTypeUniversity InstitutionType = "university"
)

// InstitutionGender is the admission policy of an institution
type InstitutionGender string

const (
	InstitutionGenderMale   InstitutionGender = "male"
	InstitutionGenderFemale InstitutionGender = "female"
	InstitutionGenderMixed  InstitutionGender = "mixed"
)

// Institution is a school or university offering tuition plans.
// IsVisible controls whether customers see it in the catalog.
type Institution struct {
	Base
	Name      LocalizedString   `gorm:"embedded;embeddedPrefix:name_" json:"name"`
	Location  LocalizedString   `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Type      InstitutionType   `gorm:"type:varchar(20);not null;index:idx_institution_type" json:"type" validate:"oneof=school university"`
	Gender    InstitutionGender `gorm:"type:varchar(10);not null" json:"gender" validate:"oneof=male female mixed"`
	IsVisible bool              `gorm:"not null;default:false;index:idx_institution_visible" json:"is_visible"`
}

func (Institution) TableName() string {
	return "institutions"
}

func (i *Institution) Validate() error {
	return validate.Struct(i)
}

func (i *Institution) BeforeCreate(tx *gorm.DB) error {
	i.ApplyDefaults()
	return nil
}

func (i *Institution) ApplyDefaults() {
	if i.Gender == "" {
		i.Gender = InstitutionGenderMixed
	}
}
