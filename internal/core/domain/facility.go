package domain

// Facilities are named physical sites; sensors are namespaced per facility.
var Facilities = []string{"Dubai", "London", "Tokyo"}

// Rooms present in every facility floor plan.
var Rooms = []string{"Server Room", "Office 1", "Office 2", "Lobby"}

// DefaultBands holds the acceptable range per sensor type, independent of
// facility.
var DefaultBands = map[SensorType]Band{
	SensorTemperature: {Min: 18, Max: 28},
	SensorHumidity:    {Min: 30, Max: 60},
	SensorCO2:         {Min: 0, Max: 800},
	SensorLight:       {Min: 100, Max: 700},
}

// sensorRooms maps the canonical sensor names to their floor-plan room.
var sensorRooms = map[string]string{
	"Temperature Sensor 1": "Server Room",
	"Humidity Sensor 1":    "Office 1",
	"CO2 Sensor 1":         "Office 2",
	"Light Sensor 1":       "Lobby",
}

// RoomFor returns the room a sensor is mounted in, or "facility" when the
// placement is unknown.
func RoomFor(sensorName string) string {
	if room, ok := sensorRooms[BaseName(sensorName)]; ok {
		return room
	}
	return "facility"
}

// BandFor resolves the threshold band for a sensor name via its inferred
// type. ok is false for unrecognized sensors, which are not evaluable.
func BandFor(sensorName string) (Band, bool) {
	b, ok := DefaultBands[TypeOf(sensorName)]
	return b, ok
}

// KnownFacility reports whether the name is one of the configured sites.
func KnownFacility(name string) bool {
	for _, f := range Facilities {
		if f == name {
			return true
		}
	}
	return false
}
