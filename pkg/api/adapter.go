package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"movequote/internal/quote"
	perrors "movequote/pkg/errors"
)

// BuildInput normalizes a raw client form into the canonical input
// record. Numeric and boolean fields may arrive as strings and are
// coerced here; service type and region are mandatory.
func BuildInput(raw map[string]any) (quote.Input, error) {
	in := quote.Input{
		ServiceType: coerceString(raw, "serviceType"),
		Region:      coerceString(raw, "region"),

		PickupAddress:   coerceString(raw, "pickupAddress"),
		DeliveryAddress: coerceString(raw, "deliveryAddress"),

		PickupFloor:            coerceInt(raw, "pickupFloor", 0),
		DeliveryFloor:          coerceInt(raw, "deliveryFloor", 0),
		PickupHasElevator:      coerceBool(raw, "pickupHasElevator", false),
		DeliveryHasElevator:    coerceBool(raw, "deliveryHasElevator", false),
		PickupCarryDistanceM:   coerceFloat(raw, "pickupCarryDistance", 0),
		DeliveryCarryDistanceM: coerceFloat(raw, "deliveryCarryDistance", 0),

		AreaM2:           coerceFloat(raw, "area", 0),
		RoomCount:        coerceInt(raw, "roomCount", 0),
		DeclaredVolumeM3: coerceFloat(raw, "volume", 0),
		DistanceKm:       coerceFloat(raw, "distance", 0),
		DeclaredValue:    coerceFloat(raw, "declaredValue", 0),
		StorageMonths:    coerceInt(raw, "storageMonths", 0),

		HasPiano:          coerceBool(raw, "hasPiano", false),
		HasFragileItems:   coerceBool(raw, "hasFragileItems", false),
		HasHighValueItems: coerceBool(raw, "hasHighValueItems", false),

		NarrowStreet: coerceBool(raw, "narrowStreet", false),
		NoParking:    coerceBool(raw, "noParking", false),

		Services: coerceServices(raw, "services"),
	}

	if in.ServiceType == "" {
		return in, perrors.MissingField("serviceType")
	}
	if in.Region == "" {
		return in, perrors.MissingField("region")
	}

	if d := coerceString(raw, "serviceDate"); d != "" {
		parsed, err := parseDate(d)
		if err != nil {
			return in, perrors.InvalidInput(fmt.Sprintf("unparsable service date %q", d))
		}
		in.ServiceDate = parsed
	}

	// Carry distance estimation: when the client did not measure the
	// carry, estimate it from the floor situation. A value set here is
	// authoritative; module defaults never override it.
	if in.PickupCarryDistanceM == 0 {
		in.PickupCarryDistanceM = estimateCarry(in.PickupFloor, in.PickupHasElevator)
	}
	if in.DeliveryCarryDistanceM == 0 {
		in.DeliveryCarryDistanceM = estimateCarry(in.DeliveryFloor, in.DeliveryHasElevator)
	}

	return in, nil
}

// ValidateForQuoting enforces the Step A boundary requirements beyond
// the two mandatory identity fields.
func ValidateForQuoting(in quote.Input) error {
	if in.ServiceDate.IsZero() {
		return perrors.MissingField("serviceDate")
	}
	if in.PickupAddress == "" {
		return perrors.MissingField("pickupAddress")
	}
	if in.DeliveryAddress == "" {
		return perrors.MissingField("deliveryAddress")
	}
	return nil
}

// estimateCarry applies the form-level estimation rule: stairs from a
// high floor mean a long carry, a low floor a moderate one.
func estimateCarry(floor int, hasElevator bool) float64 {
	if floor >= 3 && !hasElevator {
		return 30
	}
	if floor >= 1 && !hasElevator {
		return 15
	}
	return 0
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", s)
}

func coerceString(raw map[string]any, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func coerceFloat(raw map[string]any, key string, defaultVal float64) float64 {
	v, ok := raw[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func coerceInt(raw map[string]any, key string, defaultVal int) int {
	v, ok := raw[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return defaultVal
}

func coerceBool(raw map[string]any, key string, defaultVal bool) bool {
	v, ok := raw[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s == "true" || s == "1" || s == "yes"
	case float64:
		return val != 0
	}
	return defaultVal
}

func coerceServices(raw map[string]any, key string) map[string]bool {
	out := make(map[string]bool)
	v, ok := raw[key]
	if !ok {
		return out
	}
	switch val := v.(type) {
	case map[string]any:
		for k := range val {
			out[k] = coerceBool(val, k, false)
		}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}
