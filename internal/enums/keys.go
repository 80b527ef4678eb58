package enums

// Registry keys. Every enum value lives under exactly one of these
// namespaces; the (key, name) pair is unique.
const (
	KeyKlic         = "klic"
	KeyDelayCause   = "pricina-zpozdeni"
	KeyType         = "type"
	KeyTransporter  = "transporter"
	KeyStop         = "stop"
	KeyVehiclePlate = "vehicle-plate"
	KeyTrailerPlate = "trailer-plate"
)

var allKeys = []string{
	KeyKlic,
	KeyDelayCause,
	KeyType,
	KeyTransporter,
	KeyStop,
	KeyVehiclePlate,
	KeyTrailerPlate,
}

// Dispatch types ship with the application, so "type" stays out of the
// editable set and the admin surface treats it as unknown.
var editableKeys = []string{
	KeyKlic,
	KeyDelayCause,
	KeyTransporter,
	KeyStop,
	KeyVehiclePlate,
	KeyTrailerPlate,
}

// Keys returns every registry key, in registry order.
func Keys() []string {
	out := make([]string, len(allKeys))
	copy(out, allKeys)
	return out
}

// EditableKeys returns the keys whose values admins may manage.
func EditableKeys() []string {
	out := make([]string, len(editableKeys))
	copy(out, editableKeys)
	return out
}

// IsKey reports whether key names a registry namespace.
func IsKey(key string) bool {
	for _, k := range allKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsEditableKey reports whether key accepts admin writes.
func IsEditableKey(key string) bool {
	for _, k := range editableKeys {
		if k == key {
			return true
		}
	}
	return false
}
