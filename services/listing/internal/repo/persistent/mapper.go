package persistent

import (
	"avto-sawda/pkg/models"
	"avto-sawda/services/listing/internal/entity"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

func ToListingEntity(m *models.Listing) *entity.Listing {
	if m == nil {
		return nil
	}

	l := &entity.Listing{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Images:           stringSlice(m.Images),
		Thumbnails:       stringSlice(m.Thumbnails),
		IsPremium:        m.IsPremium,
		PremiumExpiresAt: m.PremiumExpiresAt,
		Views:            m.Views,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}

	l.TelegramPosts = make(entity.Registry, 0, len(m.TelegramPosts))
	for _, p := range m.TelegramPosts {
		l.TelegramPosts = append(l.TelegramPosts, entity.ChannelPost{ChannelID: p.ChannelID, PostID: p.PostID, Media: p.Media})
	}

	l.Attributes = entity.Attributes{
		Brand:           m.Brand,
		Model:           m.Model,
		Year:            m.Year,
		Mileage:         m.Mileage,
		Price:           m.Price,
		VinCode:         m.VinCode,
		Color:           m.Color,
		BodyType:        m.BodyType,
		Doors:           m.Doors,
		Seats:           m.Seats,
		Transmission:    m.Transmission,
		FuelType:        m.FuelType,
		EngineVolume:    m.EngineVolume,
		EnginePower:     m.EnginePower,
		BatteryCapacity: m.BatteryCapacity,
		ElectricRange:   m.ElectricRange,
		FuelConsumption: entity.FuelConsumption{
			City:     m.FuelConsumptionCity,
			Highway:  m.FuelConsumptionHighway,
			Combined: m.FuelConsumptionCombined,
		},
		DriveType: m.DriveType,
		GasEquipment: entity.GasEquipment{
			HasGasEquipment: m.HasGasEquipment,
			GasType:         m.GasType,
			Generation:      m.GasGeneration,
		},

		HasSunroof:       m.HasSunroof,
		HasPanoramicRoof: m.HasPanoramicRoof,
		HasCovers:        m.HasCovers,
		CoverType:        m.CoverType,
		Tinting: entity.Tinting{
			HasTinting:       m.HasTinting,
			Location:         m.TintingLocation,
			PermissionExpiry: m.TintingPermissionExpiry,
		},
		SunProtection: entity.SunProtection{
			HasSunProtection: m.HasSunProtection,
			Location:         m.SunProtectionLocation,
		},

		HasMultimedia:       m.HasMultimedia,
		MultimediaFeatures:  stringSlice(m.MultimediaFeatures),
		Cameras:             stringSlice(m.Cameras),
		ClimateControl:      m.ClimateControl,
		HeatedSeats:         m.HeatedSeats,
		VentilatedSeats:     m.VentilatedSeats,
		HeatedSteeringWheel: m.HeatedSteeringWheel,
		CruiseControl:       m.CruiseControl,
		KeylessEntry:        m.KeylessEntry,
		StartStopButton:     m.StartStopButton,
		WoodTrim:            m.WoodTrim,
		PowerMirrors:        m.PowerMirrors,
		PowerWindows:        m.PowerWindows,
		RainSensor:          m.RainSensor,
		LightSensor:         m.LightSensor,

		SafetyFeatures: stringSlice(m.SafetyFeatures),
		AirbagsCount:   m.AirbagsCount,

		Condition:          m.Condition,
		HasAccidentHistory: m.HasAccidentHistory,
		HasRepairHistory:   m.HasRepairHistory,
		CountryOfOrigin:    m.CountryOfOrigin,
		OwnersCount:        m.OwnersCount,
		ServiceHistory:     m.HasServiceHistory,
		Warranty: entity.Warranty{
			HasWarranty: m.HasWarranty,
			ExpiryDate:  m.WarrantyExpiry,
			Description: m.WarrantyDescription,
		},

		Location:    m.Location,
		Description: m.Description,
		Contact: entity.Contact{
			Phone:          m.ContactPhone,
			Telegram:       m.ContactTelegram,
			InstagramReels: m.ContactInstagram,
			Whatsapp:       m.ContactWhatsapp,
		},
		VideoURL: m.VideoURL,
		Status:   entity.Status(m.Status),
	}

	return l
}

func ToListingModel(e *entity.Listing) *models.Listing {
	if e == nil {
		return nil
	}

	a := e.Attributes
	status := a.Status
	if status == "" {
		status = entity.StatusSale
	}

	return &models.Listing{
		ID:      e.ID,
		OwnerID: e.OwnerID,

		Brand:   a.Brand,
		Model:   a.Model,
		Year:    a.Year,
		Mileage: a.Mileage,
		Price:   a.Price,
		VinCode: a.VinCode,
		Color:   a.Color,

		BodyType:        a.BodyType,
		Doors:           a.Doors,
		Seats:           a.Seats,
		Transmission:    a.Transmission,
		FuelType:        a.FuelType,
		EngineVolume:    a.EngineVolume,
		EnginePower:     a.EnginePower,
		BatteryCapacity: a.BatteryCapacity,
		ElectricRange:   a.ElectricRange,

		FuelConsumptionCity:     a.FuelConsumption.City,
		FuelConsumptionHighway:  a.FuelConsumption.Highway,
		FuelConsumptionCombined: a.FuelConsumption.Combined,
		DriveType:               a.DriveType,

		HasGasEquipment: a.GasEquipment.HasGasEquipment,
		GasType:         a.GasEquipment.GasType,
		GasGeneration:   a.GasEquipment.Generation,

		HasSunroof:              a.HasSunroof,
		HasPanoramicRoof:        a.HasPanoramicRoof,
		HasCovers:               a.HasCovers,
		CoverType:               a.CoverType,
		HasTinting:              a.Tinting.HasTinting,
		TintingLocation:         a.Tinting.Location,
		TintingPermissionExpiry: a.Tinting.PermissionExpiry,
		HasSunProtection:        a.SunProtection.HasSunProtection,
		SunProtectionLocation:   a.SunProtection.Location,

		HasMultimedia:       a.HasMultimedia,
		MultimediaFeatures:  pq.StringArray(nonNil(a.MultimediaFeatures)),
		Cameras:             pq.StringArray(nonNil(a.Cameras)),
		ClimateControl:      a.ClimateControl,
		HeatedSeats:         a.HeatedSeats,
		VentilatedSeats:     a.VentilatedSeats,
		HeatedSteeringWheel: a.HeatedSteeringWheel,
		CruiseControl:       a.CruiseControl,
		KeylessEntry:        a.KeylessEntry,
		StartStopButton:     a.StartStopButton,
		WoodTrim:            a.WoodTrim,
		PowerMirrors:        a.PowerMirrors,
		PowerWindows:        a.PowerWindows,
		RainSensor:          a.RainSensor,
		LightSensor:         a.LightSensor,

		SafetyFeatures: pq.StringArray(nonNil(a.SafetyFeatures)),
		AirbagsCount:   a.AirbagsCount,

		Condition:           a.Condition,
		HasAccidentHistory:  a.HasAccidentHistory,
		HasRepairHistory:    a.HasRepairHistory,
		CountryOfOrigin:     a.CountryOfOrigin,
		OwnersCount:         a.OwnersCount,
		HasServiceHistory:   a.ServiceHistory,
		HasWarranty:         a.Warranty.HasWarranty,
		WarrantyExpiry:      a.Warranty.ExpiryDate,
		WarrantyDescription: a.Warranty.Description,

		Location:    a.Location,
		Description: a.Description,

		ContactPhone:     a.Contact.Phone,
		ContactTelegram:  a.Contact.Telegram,
		ContactInstagram: a.Contact.InstagramReels,
		ContactWhatsapp:  a.Contact.Whatsapp,

		Images:     pq.StringArray(nonNil(e.Images)),
		Thumbnails: pq.StringArray(nonNil(e.Thumbnails)),
		VideoURL:   a.VideoURL,

		IsPremium:        e.IsPremium,
		PremiumExpiresAt: e.PremiumExpiresAt,
		Status:           models.ListingStatus(status),
		Views:            e.Views,

		TelegramPosts: registryColumn(e.TelegramPosts),

		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func ToUserEntity(m *models.User) *entity.User {
	if m == nil {
		return nil
	}
	return &entity.User{
		ID:            m.ID,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Phone:         m.Phone,
		PasswordHash:  m.Password,
		Role:          string(m.Role),
		SavedListings: stringSlice(m.SavedListings),
		CreatedAt:     m.CreatedAt,
	}
}

func stringSlice(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func registryColumn(r entity.Registry) datatypes.JSONSlice[models.ChannelPost] {
	posts := make([]models.ChannelPost, 0, len(r))
	for _, p := range r {
		posts = append(posts, models.ChannelPost{ChannelID: p.ChannelID, PostID: p.PostID, Media: p.Media})
	}
	return datatypes.NewJSONSlice(posts)
}
