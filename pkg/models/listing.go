package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	StatusSale     ListingStatus = "sale"
	StatusSold     ListingStatus = "sold"
	StatusReserved ListingStatus = "reserved"
	StatusExpired  ListingStatus = "expired"
)

// ChannelPost is one syndication registry entry stored in listings.telegram_posts.
type ChannelPost struct {
	ChannelID string `json:"channelId"`
	PostID    string `json:"postId"`
	Media     bool   `json:"media"`
}

type Listing struct {
	ID      string `gorm:"type:uuid;primary_key"`
	OwnerID string `gorm:"type:uuid;not null;index"`

	Brand   string `gorm:"not null;index"`
	Model   string `gorm:"not null;index"`
	Year    int    `gorm:"not null"`
	Mileage int    `gorm:"not null;default:0"`
	Price   *int64 `gorm:"index"`
	VinCode string
	Color   string

	BodyType        string `gorm:"type:varchar(20)"`
	Doors           int
	Seats           int
	Transmission    string `gorm:"type:varchar(20);not null"`
	FuelType        string `gorm:"type:varchar(20);not null"`
	EngineVolume    *float64
	EnginePower     *int
	BatteryCapacity *float64
	ElectricRange   *int

	FuelConsumptionCity     *float64
	FuelConsumptionHighway  *float64
	FuelConsumptionCombined *float64
	DriveType               string `gorm:"type:varchar(10)"`

	HasGasEquipment bool
	GasType         string `gorm:"type:varchar(20)"`
	GasGeneration   string `gorm:"type:varchar(10)"`

	HasSunroof              bool
	HasPanoramicRoof        bool
	HasCovers               bool
	CoverType               string
	HasTinting              bool
	TintingLocation         string
	TintingPermissionExpiry *time.Time
	HasSunProtection        bool
	SunProtectionLocation   string

	HasMultimedia       bool
	MultimediaFeatures  pq.StringArray `gorm:"type:text[]"`
	Cameras             pq.StringArray `gorm:"type:text[]"`
	ClimateControl      string         `gorm:"type:varchar(20)"`
	HeatedSeats         string         `gorm:"type:varchar(20)"`
	VentilatedSeats     bool
	HeatedSteeringWheel bool
	CruiseControl       string `gorm:"type:varchar(20)"`
	KeylessEntry        bool
	StartStopButton     bool
	WoodTrim            bool
	PowerMirrors        bool
	PowerWindows        string `gorm:"type:varchar(20)"`
	RainSensor          bool
	LightSensor         bool

	SafetyFeatures pq.StringArray `gorm:"type:text[]"`
	AirbagsCount   int

	Condition           string `gorm:"type:varchar(10);not null"`
	HasAccidentHistory  bool
	HasRepairHistory    bool
	CountryOfOrigin     string
	OwnersCount         int `gorm:"default:1"`
	HasServiceHistory   bool
	HasWarranty         bool
	WarrantyExpiry      *time.Time
	WarrantyDescription string

	Location    string
	Description string `gorm:"type:text"`

	ContactPhone     string `gorm:"not null"`
	ContactTelegram  string
	ContactInstagram string
	ContactWhatsapp  string

	Images     pq.StringArray `gorm:"type:text[];not null"`
	Thumbnails pq.StringArray `gorm:"type:text[]"`
	VideoURL   string

	IsPremium        bool `gorm:"default:false;index"`
	PremiumExpiresAt *time.Time
	Status           ListingStatus `gorm:"type:varchar(16);default:'sale';index"`
	Views            int           `gorm:"default:0"`

	TelegramPosts datatypes.JSONSlice[ChannelPost] `gorm:"type:jsonb;default:'[]'"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}
