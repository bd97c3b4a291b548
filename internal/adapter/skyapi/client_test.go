package skyapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroplanner/internal/domain"
)

func TestTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/targets", r.URL.Path)
		assert.Equal(t, "2024-06-02T03:00:00Z", r.URL.Query().Get("at"))
		assert.Equal(t, "-79.38", r.URL.Query().Get("lon"))
		_, _ = w.Write([]byte(`[
			{"name":"Saturn","kind":"planet","altitude_deg":31.5,"azimuth_deg":140,"sun_altitude_deg":-20,"elongation_deg":95,"visible":true,"score":61.2},
			{"name":"Pleiades (M45)","kind":"dso","altitude_deg":-4,"azimuth_deg":40,"sun_altitude_deg":-20,"visible":false,"reason":"Below horizon","score":0}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, nil)
	at := time.Date(2024, 6, 1, 23, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	got, err := c.Targets(context.Background(), 43.65, -79.38, at)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.KindPlanet, got[0].Kind)
	require.NotNil(t, got[0].ElongationDeg)
	assert.Equal(t, 95.0, *got[0].ElongationDeg)
	assert.Equal(t, "Below horizon", got[1].Reason)
	assert.Nil(t, got[1].ElongationDeg)
}

func TestTargets_ErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lat") == "1" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"ephemeris unavailable"}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second, nil)

	_, err := c.Targets(context.Background(), 0, 0, time.Now())
	assert.EqualError(t, err, "sky service error: 400 ephemeris unavailable")

	_, err = c.Targets(context.Background(), 1, 0, time.Now())
	assert.EqualError(t, err, "sky service error: 503 Service Unavailable")
}
