package content

import (
	"time"

	"lunarcms/internal/storage"

	"github.com/google/uuid"
)

type PricingPlan struct {
	ID            uuid.UUID          `json:"id"            gorm:"column:id"`
	PlanID        string             `json:"planId"        gorm:"column:plan_id;uniqueIndex"`
	Name          string             `json:"name"          gorm:"column:name"`
	Price         string             `json:"price"         gorm:"column:price"`
	Period        string             `json:"period"        gorm:"column:period"`
	Description   string             `json:"description"   gorm:"column:description"`
	Features      storage.StringList `json:"features"      gorm:"column:features;type:jsonb"`
	ButtonText    string             `json:"buttonText"    gorm:"column:button_text"`
	ButtonVariant string             `json:"buttonVariant" gorm:"column:button_variant"`
	Popular       bool               `json:"popular"       gorm:"column:popular"`
	Timeline      string             `json:"timeline"      gorm:"column:timeline"`
	Category      string             `json:"category"      gorm:"column:category"`
	DisplayOrder  int                `json:"displayOrder"  gorm:"column:display_order"`
	IsActive      bool               `json:"isActive"      gorm:"column:is_active"`
	CreatedAt     time.Time          `json:"createdAt"     gorm:"column:created_at"`
	UpdatedAt     time.Time          `json:"updatedAt"     gorm:"column:updated_at"`
}

func (PricingPlan) TableName() string {
	return "pricing_plans"
}

type Feature struct {
	ID           uuid.UUID `json:"id"           gorm:"column:id"`
	Title        string    `json:"title"        gorm:"column:title"`
	Description  string    `json:"description"  gorm:"column:description"`
	Icon         string    `json:"icon"         gorm:"column:icon"`
	Color        string    `json:"color"        gorm:"column:color"`
	DisplayOrder int       `json:"displayOrder" gorm:"column:display_order"`
	IsActive     bool      `json:"isActive"     gorm:"column:is_active"`
	CreatedAt    time.Time `json:"createdAt"    gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    gorm:"column:updated_at"`
}

func (Feature) TableName() string {
	return "features"
}

type Testimonial struct {
	ID            uuid.UUID `json:"id"            gorm:"column:id"`
	ClientName    string    `json:"clientName"    gorm:"column:client_name"`
	ClientCompany string    `json:"clientCompany" gorm:"column:client_company"`
	ClientRole    string    `json:"clientRole"    gorm:"column:client_role"`
	Testimonial   string    `json:"testimonial"   gorm:"column:testimonial"`
	Rating        int       `json:"rating"        gorm:"column:rating"`
	Avatar        string    `json:"avatar"        gorm:"column:avatar"`
	ProjectType   string    `json:"projectType"   gorm:"column:project_type"`
	DisplayOrder  int       `json:"displayOrder"  gorm:"column:display_order"`
	IsActive      bool      `json:"isActive"      gorm:"column:is_active"`
	CreatedAt     time.Time `json:"createdAt"     gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     gorm:"column:updated_at"`
}

func (Testimonial) TableName() string {
	return "testimonials"
}

type FAQ struct {
	ID           uuid.UUID `json:"id"           gorm:"column:id"`
	Question     string    `json:"question"     gorm:"column:question"`
	Answer       string    `json:"answer"       gorm:"column:answer"`
	Category     string    `json:"category"     gorm:"column:category"`
	DisplayOrder int       `json:"displayOrder" gorm:"column:display_order"`
	IsActive     bool      `json:"isActive"     gorm:"column:is_active"`
	CreatedAt    time.Time `json:"createdAt"    gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    gorm:"column:updated_at"`
}

func (FAQ) TableName() string {
	return "faqs"
}

type SiteSetting struct {
	ID           uuid.UUID `json:"id"           gorm:"column:id"`
	SettingKey   string    `json:"settingKey"   gorm:"column:setting_key;uniqueIndex"`
	SettingValue string    `json:"settingValue" gorm:"column:setting_value"`
	SettingType  string    `json:"settingType"  gorm:"column:setting_type"`
	Description  string    `json:"description"  gorm:"column:description"`
	CreatedAt    time.Time `json:"createdAt"    gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    gorm:"column:updated_at"`
}

func (SiteSetting) TableName() string {
	return "site_settings"
}

func (p *PricingPlan) GetID() uuid.UUID   { return p.ID }
func (p *PricingPlan) SetID(id uuid.UUID) { p.ID = id }

func (f *Feature) GetID() uuid.UUID   { return f.ID }
func (f *Feature) SetID(id uuid.UUID) { f.ID = id }

func (t *Testimonial) GetID() uuid.UUID   { return t.ID }
func (t *Testimonial) SetID(id uuid.UUID) { t.ID = id }

func (f *FAQ) GetID() uuid.UUID   { return f.ID }
func (f *FAQ) SetID(id uuid.UUID) { f.ID = id }

func (s *SiteSetting) GetID() uuid.UUID   { return s.ID }
func (s *SiteSetting) SetID(id uuid.UUID) { s.ID = id }
