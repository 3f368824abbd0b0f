// internal/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zonekit/deliveryzones/internal/geo"
	"github.com/zonekit/deliveryzones/internal/model"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:8000", 0)

	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.baseURL != "http://localhost:8000" {
		t.Errorf("expected baseURL=http://localhost:8000, got %s", c.baseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %s", c.httpClient.Timeout)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:8000/", time.Second)
	if c.baseURL != "http://localhost:8000" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
}

func TestGetCenter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/delivery-zones/center/info" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"lat":48.9219,"lng":24.7082,"address":"Ivano-Frankivsk"}`))
	}))
	defer server.Close()

	center, err := New(server.URL, 0).GetCenter(context.Background())
	if err != nil {
		t.Fatalf("GetCenter failed: %v", err)
	}
	if center.Lat != 48.9219 || center.Lng != 24.7082 || center.Address != "Ivano-Frankivsk" {
		t.Errorf("unexpected center: %+v", center)
	}
}

func TestUpdateCenter_SendsJSON(t *testing.T) {
	var got model.Center
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(got)
	}))
	defer server.Close()

	out, err := New(server.URL, 0).UpdateCenter(context.Background(), model.Center{Lat: 50.45, Lng: 30.52, Address: "Kyiv"})
	if err != nil {
		t.Fatalf("UpdateCenter failed: %v", err)
	}
	if got.Address != "Kyiv" || out.Lat != 50.45 {
		t.Errorf("unexpected round trip: sent %+v, got %+v", got, out)
	}
}

func TestRecalculateAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/delivery-zones/recalculate-all" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"status":"recalculated","zones_updated":3,"message":"ok"}`))
	}))
	defer server.Close()

	res, err := New(server.URL, 0).RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll failed: %v", err)
	}
	if res.ZonesUpdated != 3 {
		t.Errorf("expected 3 zones updated, got %d", res.ZonesUpdated)
	}
}

func TestListZones_DecodesBothVariants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/delivery-zones/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"_id":"z1","name":"Center","zone_type":"radius","radius_km":2,"color":"#22c55e","enabled":true,"priority":1,
			 "geometry":{"type":"Polygon","coordinates":[[[24.7,48.9],[24.8,48.9],[24.8,49.0],[24.7,48.9]]]}},
			{"_id":"z2","name":"Park","zone_type":"polygon","color":"#3b82f6","enabled":true,"priority":2,
			 "geometry":{"type":"Polygon","coordinates":[[[24.6,48.8],[24.65,48.8],[24.65,48.85],[24.6,48.8]]]}}
		]`))
	}))
	defer server.Close()

	zones, err := New(server.URL, 0).ListZones(context.Background())
	if err != nil {
		t.Fatalf("ListZones failed: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}
	if r, ok := zones[0].Radius(); !ok || r != 2 {
		t.Errorf("expected radius zone of 2 km, got %+v", zones[0].Shape)
	}
	if _, ok := zones[0].Geometry(); ok {
		t.Error("radius zone must not carry geometry")
	}
	poly, ok := zones[1].Geometry()
	if !ok || poly[0][1] != (geo.LngLat{24.65, 48.8}) {
		t.Errorf("unexpected polygon zone: %+v", zones[1].Shape)
	}
}

func TestCreateZone_PostsDraft(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/delivery-zones/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"_id":"new1","name":"Near","zone_type":"radius","radius_km":3,"color":"#22c55e","enabled":true,"priority":4}`))
	}))
	defer server.Close()

	d := model.NewDraft("#22c55e", 3, 4)
	d.Name = "Near"
	z, err := New(server.URL, 0).CreateZone(context.Background(), d)
	if err != nil {
		t.Fatalf("CreateZone failed: %v", err)
	}
	if z.ID != "new1" {
		t.Errorf("expected id new1, got %s", z.ID)
	}
	if body["zone_type"] != "radius" || body["radius_km"] != 3.0 || body["priority"] != 4.0 {
		t.Errorf("unexpected body: %v", body)
	}
	if _, present := body["custom_geometry"]; present {
		t.Error("radius draft must not send custom_geometry")
	}
}

func TestUpdateAndDeleteZone_UseID(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.Write([]byte(`{"status":"deleted","zone_id":"z1"}`))
			return
		}
		w.Write([]byte(`{"_id":"z1","zone_type":"radius","radius_km":4}`))
	}))
	defer server.Close()

	c := New(server.URL, 0)
	if _, err := c.UpdateZone(context.Background(), "z1", model.NewDraft("#000000", 4, 1)); err != nil {
		t.Fatalf("UpdateZone failed: %v", err)
	}
	if err := c.DeleteZone(context.Background(), "z1"); err != nil {
		t.Fatalf("DeleteZone failed: %v", err)
	}

	want := []string{"PUT /api/delivery-zones/z1", "DELETE /api/delivery-zones/z1"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("expected %v, got %v", want, calls)
	}
}

func TestClassifyPoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/delivery-zones/detect-coordinates" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("lat") != "48.93" || r.URL.Query().Get("lng") != "24.71" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"zone_id":"z1","zone_name":"Center","delivery_fee":30,"min_order_amount":200,
			"free_delivery_threshold":500,"coordinates":{"lat":48.93,"lng":24.71},"available":true,"message":"Zone: Center"}`))
	}))
	defer server.Close()

	res, err := New(server.URL, 0).ClassifyPoint(context.Background(), 48.93, 24.71)
	if err != nil {
		t.Fatalf("ClassifyPoint failed: %v", err)
	}
	if !res.Available || res.ZoneName != "Center" || res.DeliveryFee != 30 {
		t.Errorf("unexpected classification: %+v", res)
	}
	if res.FreeDeliveryThreshold == nil || *res.FreeDeliveryThreshold != 500 {
		t.Errorf("expected free delivery threshold 500, got %v", res.FreeDeliveryThreshold)
	}
	if res.Coordinates == nil || res.Coordinates.Lat != 48.93 {
		t.Errorf("expected echoed coordinates, got %v", res.Coordinates)
	}
}

func TestServerError_Detail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"string detail", http.StatusNotFound, `{"detail":"Zone not found"}`, "Zone not found"},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","radius_km"],"msg":"Input should be greater than 0"}]}`, "Input should be greater than 0"},
		{"no payload", http.StatusInternalServerError, `oops`, ""},
		{"empty list", http.StatusBadRequest, `{"detail":[]}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			err := New(server.URL, 0).DeleteZone(context.Background(), "z1")

			var se *ServerError
			if !errors.As(err, &se) {
				t.Fatalf("expected ServerError, got %T %v", err, err)
			}
			if se.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.Status)
			}
			if se.Detail != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, se.Detail)
			}
			if IsTransport(err) {
				t.Error("server error must not be a transport error")
			}
		})
	}
}

func TestTransportError_ServerDown(t *testing.T) {
	c := New("http://localhost:59999", time.Second) // unlikely to be listening
	_, err := c.ListZones(context.Background())
	if !IsTransport(err) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestTransportError_Timeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	_, err := New(server.URL, 50*time.Millisecond).GetCenter(context.Background())
	if !IsTransport(err) {
		t.Errorf("expected transport error on timeout, got %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"lat":"north"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, 0).GetCenter(context.Background())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if IsTransport(err) {
		t.Error("decode failure is not a transport error")
	}
}
