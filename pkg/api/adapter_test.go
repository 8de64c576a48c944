package api

import (
	"errors"
	"testing"
	"time"

	perrors "movequote/pkg/errors"
)

func rawForm() map[string]any {
	return map[string]any{
		"serviceType":     "residential",
		"region":          "ile-de-france",
		"serviceDate":     "2026-11-15",
		"pickupAddress":   "12 rue de la Pompe, Paris",
		"deliveryAddress": "4 avenue Foch, Lyon",
	}
}

func TestBuildInputCoercion(t *testing.T) {
	raw := rawForm()
	raw["volume"] = "32.5"
	raw["distance"] = 140.0
	raw["roomCount"] = 4.0
	raw["pickupFloor"] = "2"
	raw["hasFragileItems"] = "yes"
	raw["narrowStreet"] = true
	raw["noParking"] = 1.0
	raw["declaredValue"] = "25000"

	in, err := BuildInput(raw)
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if in.DeclaredVolumeM3 != 32.5 {
		t.Errorf("volume = %v, want 32.5", in.DeclaredVolumeM3)
	}
	if in.DistanceKm != 140 {
		t.Errorf("distance = %v, want 140", in.DistanceKm)
	}
	if in.RoomCount != 4 {
		t.Errorf("roomCount = %d, want 4", in.RoomCount)
	}
	if in.PickupFloor != 2 {
		t.Errorf("pickupFloor = %d, want 2", in.PickupFloor)
	}
	if !in.HasFragileItems || !in.NarrowStreet || !in.NoParking {
		t.Error("boolean coercion failed")
	}
	if in.DeclaredValue != 25000 {
		t.Errorf("declaredValue = %v, want 25000", in.DeclaredValue)
	}
}

func TestBuildInputMandatoryFields(t *testing.T) {
	for _, missing := range []string{"serviceType", "region"} {
		raw := rawForm()
		delete(raw, missing)
		_, err := BuildInput(raw)
		var qe *perrors.QuoteError
		if !errors.As(err, &qe) {
			t.Fatalf("missing %s: error = %v, want QuoteError", missing, err)
		}
		if qe.Code != perrors.ErrCodeInvalidInput {
			t.Errorf("missing %s: code = %s, want %s", missing, qe.Code, perrors.ErrCodeInvalidInput)
		}
	}
}

func TestBuildInputDateParsing(t *testing.T) {
	raw := rawForm()
	raw["serviceDate"] = "2026-11-15T09:30:00Z"
	in, err := BuildInput(raw)
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	want := time.Date(2026, 11, 15, 9, 30, 0, 0, time.UTC)
	if !in.ServiceDate.Equal(want) {
		t.Errorf("date = %v, want %v", in.ServiceDate, want)
	}

	raw["serviceDate"] = "15/11/2026"
	if _, err := BuildInput(raw); err == nil {
		t.Fatal("expected error for unparsable date")
	}
}

func TestBuildInputEstimatesCarryFromFloors(t *testing.T) {
	cases := []struct {
		name        string
		floor       any
		hasElevator any
		measured    any
		want        float64
	}{
		{"high floor without elevator", 5, false, nil, 30},
		{"third floor without elevator", 3, false, nil, 30},
		{"low floor without elevator", 1, false, nil, 15},
		{"elevator cancels estimation", 5, true, nil, 0},
		{"ground floor", 0, false, nil, 0},
		{"measured value wins", 5, false, 8.0, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := rawForm()
			raw["pickupFloor"] = tc.floor
			raw["pickupHasElevator"] = tc.hasElevator
			if tc.measured != nil {
				raw["pickupCarryDistance"] = tc.measured
			}
			in, err := BuildInput(raw)
			if err != nil {
				t.Fatalf("BuildInput: %v", err)
			}
			if in.PickupCarryDistanceM != tc.want {
				t.Errorf("carry = %v, want %v", in.PickupCarryDistanceM, tc.want)
			}
		})
	}
}

func TestBuildInputServices(t *testing.T) {
	raw := rawForm()
	raw["services"] = []any{"packing", "storage"}
	in, err := BuildInput(raw)
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if !in.Services["packing"] || !in.Services["storage"] {
		t.Errorf("services list form not parsed: %v", in.Services)
	}

	raw["services"] = map[string]any{"packing": true, "cleaning": "yes", "storage": false}
	in, err = BuildInput(raw)
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if !in.Services["packing"] || !in.Services["cleaning"] {
		t.Errorf("services map form not parsed: %v", in.Services)
	}
	if in.Services["storage"] {
		t.Error("storage explicitly off should stay off")
	}
}

func TestValidateForQuoting(t *testing.T) {
	in, err := BuildInput(rawForm())
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if err := ValidateForQuoting(in); err != nil {
		t.Fatalf("ValidateForQuoting: %v", err)
	}

	noDate := in
	noDate.ServiceDate = time.Time{}
	if err := ValidateForQuoting(noDate); err == nil {
		t.Error("expected error for missing date")
	}

	noPickup := in
	noPickup.PickupAddress = ""
	if err := ValidateForQuoting(noPickup); err == nil {
		t.Error("expected error for missing pickup address")
	}

	noDelivery := in
	noDelivery.DeliveryAddress = ""
	if err := ValidateForQuoting(noDelivery); err == nil {
		t.Error("expected error for missing delivery address")
	}
}
