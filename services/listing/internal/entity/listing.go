package entity

import "time"

type Status string

const (
	StatusSale     Status = "sale"
	StatusSold     Status = "sold"
	StatusReserved Status = "reserved"
	StatusExpired  Status = "expired"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type GasEquipment struct {
	HasGasEquipment bool   `json:"hasGasEquipment"`
	GasType         string `json:"gasType,omitempty" validate:"omitempty,oneof=none methane propane"`
	Generation      string `json:"generation,omitempty"`
}

type Tinting struct {
	HasTinting       bool       `json:"hasTinting"`
	Location         string     `json:"location,omitempty"`
	PermissionExpiry *time.Time `json:"permissionExpiry,omitempty"`
}

type SunProtection struct {
	HasSunProtection bool   `json:"hasSunProtection"`
	Location         string `json:"location,omitempty"`
}

type FuelConsumption struct {
	City     *float64 `json:"city,omitempty" validate:"omitempty,gte=0"`
	Highway  *float64 `json:"highway,omitempty" validate:"omitempty,gte=0"`
	Combined *float64 `json:"combined,omitempty" validate:"omitempty,gte=0"`
}

type Warranty struct {
	HasWarranty bool       `json:"hasWarranty"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	Description string     `json:"description,omitempty"`
}

type Contact struct {
	Phone          string `json:"phone" validate:"required"`
	Telegram       string `json:"telegram,omitempty"`
	InstagramReels string `json:"instagramReels,omitempty"`
	Whatsapp       string `json:"whatsapp,omitempty"`
}

// Attributes are the owner-editable facets of a listing.
type Attributes struct {
	Brand   string `json:"brand" validate:"required,max=100"`
	Model   string `json:"model" validate:"required,max=100"`
	Year    int    `json:"year" validate:"required,gte=1900"`
	Mileage int    `json:"mileage" validate:"gte=0"`
	Price   *int64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	VinCode string `json:"vinCode,omitempty"`
	Color   string `json:"color,omitempty"`

	BodyType        string          `json:"bodyType,omitempty" validate:"omitempty,oneof=sedan hatchback suv crossover coupe wagon minivan pickup van convertible other"`
	Doors           int             `json:"doors,omitempty" validate:"gte=0,lte=6"`
	Seats           int             `json:"seats,omitempty" validate:"gte=0,lte=60"`
	Transmission    string          `json:"transmission" validate:"required,oneof=automatic manual robot cvt"`
	FuelType        string          `json:"fuelType" validate:"required,oneof=petrol diesel electric hybrid hybrid_plugin"`
	EngineVolume    *float64        `json:"engineVolume,omitempty" validate:"omitempty,gte=0"`
	EnginePower     *int            `json:"enginePower,omitempty" validate:"omitempty,gte=0"`
	BatteryCapacity *float64        `json:"batteryCapacity,omitempty" validate:"omitempty,gte=0"`
	ElectricRange   *int            `json:"electricRange,omitempty" validate:"omitempty,gte=0"`
	FuelConsumption FuelConsumption `json:"fuelConsumption"`
	DriveType       string          `json:"driveType,omitempty" validate:"omitempty,oneof=fwd rwd awd 4wd"`
	GasEquipment    GasEquipment    `json:"gasEquipment"`

	HasSunroof       bool          `json:"hasSunroof"`
	HasPanoramicRoof bool          `json:"hasPanoramicRoof"`
	HasCovers        bool          `json:"hasCovers"`
	CoverType        string        `json:"coverType,omitempty" validate:"omitempty,oneof=none fabric leather eco-leather combined"`
	Tinting          Tinting       `json:"tinting"`
	SunProtection    SunProtection `json:"sunProtection"`

	HasMultimedia       bool     `json:"hasMultimedia"`
	MultimediaFeatures  []string `json:"multimediaFeatures" validate:"dive,oneof=android_auto apple_carplay bluetooth usb aux navigation touchscreen wifi"`
	Cameras             []string `json:"cameras" validate:"dive,oneof=rear_camera front_camera 360_camera parking_sensors blind_spot"`
	ClimateControl      string   `json:"climateControl,omitempty" validate:"omitempty,oneof=none ac climate_control dual_zone multi_zone"`
	HeatedSeats         string   `json:"heatedSeats,omitempty" validate:"omitempty,oneof=none front front_rear all"`
	VentilatedSeats     bool     `json:"ventilatedSeats"`
	HeatedSteeringWheel bool     `json:"heatedSteeringWheel"`
	CruiseControl       string   `json:"cruiseControl,omitempty" validate:"omitempty,oneof=none standard adaptive"`
	KeylessEntry        bool     `json:"keylessEntry"`
	StartStopButton     bool     `json:"startStopButton"`
	WoodTrim            bool     `json:"woodTrim"`
	PowerMirrors        bool     `json:"powerMirrors"`
	PowerWindows        string   `json:"powerWindows,omitempty" validate:"omitempty,oneof=none front all"`
	RainSensor          bool     `json:"rainSensor"`
	LightSensor         bool     `json:"lightSensor"`

	SafetyFeatures []string `json:"safetyFeatures" validate:"dive,oneof=abs esp traction airbags_front airbags_side airbags_curtain lane_assist collision_warning auto_brake isofix alarm immobilizer"`
	AirbagsCount   int      `json:"airbagsCount" validate:"gte=0,lte=20"`

	Condition          string   `json:"condition" validate:"required,oneof=new good normal"`
	HasAccidentHistory bool     `json:"hasAccidentHistory"`
	HasRepairHistory   bool     `json:"hasRepairHistory"`
	CountryOfOrigin    string   `json:"countryOfOrigin,omitempty"`
	OwnersCount        int      `json:"ownersCount" validate:"gte=0"`
	ServiceHistory     bool     `json:"serviceHistory"`
	Warranty           Warranty `json:"warranty"`

	Location    string  `json:"location,omitempty" validate:"max=300"`
	Description string  `json:"description,omitempty" validate:"max=2000"`
	Contact     Contact `json:"contact"`
	VideoURL    string  `json:"videoUrl,omitempty"`

	Status Status `json:"status" validate:"omitempty,oneof=sale sold reserved expired"`
}

type Listing struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner"`
	Attributes

	Images     []string `json:"images"`
	Thumbnails []string `json:"thumbnails"`

	IsPremium        bool       `json:"isPremium"`
	PremiumExpiresAt *time.Time `json:"premiumExpiresAt,omitempty"`
	Views            int        `json:"views"`

	TelegramPosts Registry `json:"telegramPosts"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *Listing) IsOwnedBy(userID string) bool {
	return l.OwnerID != "" && l.OwnerID == userID
}

// PremiumExpired reports a stale premium flag that must be cleared.
func (l *Listing) PremiumExpired(now time.Time) bool {
	return l.IsPremium && (l.PremiumExpiresAt == nil || !l.PremiumExpiresAt.After(now))
}

func (l *Listing) PriceValue() int64 {
	if l.Price == nil {
		return 0
	}
	return *l.Price
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanModify reports owner-or-admin authorization over a listing.
func (a Actor) CanModify(l *Listing) bool {
	return a.IsAdmin() || l.IsOwnedBy(a.UserID)
}
