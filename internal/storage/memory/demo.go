package memory

import "github.com/zonekit/deliveryzones/internal/model"

// DemoCenter is the service center the demo store starts with.
var DemoCenter = model.Center{
	Lat:     48.92187972532543,
	Lng:     24.708232677282346,
	Address: "Ivano-Frankivsk",
}

func ptr(v float64) *float64 { return &v }

// DemoZones returns the three concentric zones of the demo store.
func DemoZones() []model.Zone {
	return []model.Zone{
		{
			ID: "demo_zone_1", Name: "Center", Color: "#22c55e",
			DeliveryFee: 30, MinOrderAmount: 200, FreeDeliveryThreshold: ptr(500),
			Enabled: true, Priority: 1, Shape: model.RadiusShape{RadiusKm: 2},
		},
		{
			ID: "demo_zone_2", Name: "Middle zone", Color: "#eab308",
			DeliveryFee: 50, MinOrderAmount: 300, FreeDeliveryThreshold: ptr(700),
			Enabled: true, Priority: 2, Shape: model.RadiusShape{RadiusKm: 5},
		},
		{
			ID: "demo_zone_3", Name: "Outer zone", Color: "#ef4444",
			DeliveryFee: 80, MinOrderAmount: 500,
			Enabled: true, Priority: 3, Shape: model.RadiusShape{RadiusKm: 10},
		},
	}
}
