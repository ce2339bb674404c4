package filter

import "avto-sawda/services/listing/internal/entity"

// field binds a listing column to its in-memory accessor. Exactly one accessor is set.
type field struct {
	column string
	text   func(*entity.Listing) string
	num    func(*entity.Listing) (float64, bool)
	flag   func(*entity.Listing) bool
	set    func(*entity.Listing) []string
}

func textField(column string, get func(*entity.Listing) string) *field {
	return &field{column: column, text: get}
}

func intField(column string, get func(*entity.Listing) int) *field {
	return &field{column: column, num: func(l *entity.Listing) (float64, bool) { return float64(get(l)), true }}
}

func flagField(column string, get func(*entity.Listing) bool) *field {
	return &field{column: column, flag: get}
}

func setField(column string, get func(*entity.Listing) []string) *field {
	return &field{column: column, set: get}
}

var (
	brandField    = textField("brand", func(l *entity.Listing) string { return l.Brand })
	modelField    = textField("model", func(l *entity.Listing) string { return l.Model })
	locationField = textField("location", func(l *entity.Listing) string { return l.Location })

	yearField        = intField("year", func(l *entity.Listing) int { return l.Year })
	mileageField     = intField("mileage", func(l *entity.Listing) int { return l.Mileage })
	airbagsField     = intField("airbags_count", func(l *entity.Listing) int { return l.AirbagsCount })
	ownersCountField = intField("owners_count", func(l *entity.Listing) int { return l.OwnersCount })

	priceField = &field{column: "price", num: func(l *entity.Listing) (float64, bool) {
		if l.Price == nil {
			return 0, false
		}
		return float64(*l.Price), true
	}}
	enginePowerField = &field{column: "engine_power", num: func(l *entity.Listing) (float64, bool) {
		if l.EnginePower == nil {
			return 0, false
		}
		return float64(*l.EnginePower), true
	}}
	engineVolumeField = &field{column: "engine_volume", num: func(l *entity.Listing) (float64, bool) {
		if l.EngineVolume == nil {
			return 0, false
		}
		return *l.EngineVolume, true
	}}

	camerasField    = setField("cameras", func(l *entity.Listing) []string { return l.Cameras })
	safetyField     = setField("safety_features", func(l *entity.Listing) []string { return l.SafetyFeatures })
	multimediaField = setField("multimedia_features", func(l *entity.Listing) []string { return l.MultimediaFeatures })
)

// Substring facets.
var textFacets = []struct {
	param string
	field *field
}{
	{"brand", brandField},
	{"model", modelField},
	{"color", textField("color", func(l *entity.Listing) string { return l.Color })},
	{"countryOfOrigin", textField("country_of_origin", func(l *entity.Listing) string { return l.CountryOfOrigin })},
	{"city", locationField},
	{"region", locationField},
}

// Exact-match enum facets.
var enumFacets = []struct {
	param string
	field *field
}{
	{"bodyType", textField("body_type", func(l *entity.Listing) string { return l.BodyType })},
	{"fuelType", textField("fuel_type", func(l *entity.Listing) string { return l.FuelType })},
	{"transmission", textField("transmission", func(l *entity.Listing) string { return l.Transmission })},
	{"driveType", textField("drive_type", func(l *entity.Listing) string { return l.DriveType })},
	{"condition", textField("condition", func(l *entity.Listing) string { return l.Condition })},
	{"status", textField("status", func(l *entity.Listing) string { return string(l.Status) })},
	{"climateControl", textField("climate_control", func(l *entity.Listing) string { return l.ClimateControl })},
	{"heatedSeats", textField("heated_seats", func(l *entity.Listing) string { return l.HeatedSeats })},
	{"cruiseControl", textField("cruise_control", func(l *entity.Listing) string { return l.CruiseControl })},
	{"gasType", textField("gas_type", func(l *entity.Listing) string { return l.GasEquipment.GasType })},
	{"gasGeneration", textField("gas_generation", func(l *entity.Listing) string { return l.GasEquipment.Generation })},
}

// Exact-match numeric facets.
var numberFacets = []struct {
	param string
	field *field
}{
	{"year", yearField},
	{"doors", intField("doors", func(l *entity.Listing) int { return l.Doors })},
	{"seats", intField("seats", func(l *entity.Listing) int { return l.Seats })},
	{"engineVolume", engineVolumeField},
}

var boolFacets = []struct {
	param string
	field *field
}{
	{"hasSunroof", flagField("has_sunroof", func(l *entity.Listing) bool { return l.HasSunroof })},
	{"hasPanoramicRoof", flagField("has_panoramic_roof", func(l *entity.Listing) bool { return l.HasPanoramicRoof })},
	{"hasCovers", flagField("has_covers", func(l *entity.Listing) bool { return l.HasCovers })},
	{"hasTinting", flagField("has_tinting", func(l *entity.Listing) bool { return l.Tinting.HasTinting })},
	{"hasMultimedia", flagField("has_multimedia", func(l *entity.Listing) bool { return l.HasMultimedia })},
	{"keylessEntry", flagField("keyless_entry", func(l *entity.Listing) bool { return l.KeylessEntry })},
	{"startStopButton", flagField("start_stop_button", func(l *entity.Listing) bool { return l.StartStopButton })},
	{"rainSensor", flagField("rain_sensor", func(l *entity.Listing) bool { return l.RainSensor })},
	{"lightSensor", flagField("light_sensor", func(l *entity.Listing) bool { return l.LightSensor })},
	{"hasAccidentHistory", flagField("has_accident_history", func(l *entity.Listing) bool { return l.HasAccidentHistory })},
	{"hasServiceHistory", flagField("has_service_history", func(l *entity.Listing) bool { return l.ServiceHistory })},
	{"hasWarranty", flagField("has_warranty", func(l *entity.Listing) bool { return l.Warranty.HasWarranty })},
	{"hasGasEquipment", flagField("has_gas_equipment", func(l *entity.Listing) bool { return l.GasEquipment.HasGasEquipment })},
	{"isPremium", flagField("is_premium", func(l *entity.Listing) bool { return l.IsPremium })},
}

// Flags that only constrain when "true", as inclusion of a member in a set column.
var memberFacets = []struct {
	param  string
	field  *field
	member string
}{
	{"hasRearCamera", camerasField, "rear_camera"},
	{"hasFrontCamera", camerasField, "front_camera"},
	{"has360Camera", camerasField, "360_camera"},
	{"hasParkingSensors", camerasField, "parking_sensors"},
	{"hasBlindSpot", camerasField, "blind_spot"},
	{"hasABS", safetyField, "abs"},
	{"hasESP", safetyField, "esp"},
	{"hasAirbags", safetyField, "airbags_front"},
}

// Comma separated lists; every member must be present.
var listFacets = []struct {
	param string
	field *field
}{
	{"cameras", camerasField},
	{"safetyFeatures", safetyField},
	{"multimediaFeatures", multimediaField},
}

var rangeFacets = []struct {
	minParam string
	maxParam string
	field    *field
}{
	{"minYear", "maxYear", yearField},
	{"minMileage", "maxMileage", mileageField},
	{"minPrice", "maxPrice", priceField},
	{"minEnginePower", "maxEnginePower", enginePowerField},
	{"minAirbagsCount", "", airbagsField},
	{"", "maxOwnersCount", ownersCountField},
}
