package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpireIfPast(t *testing.T) {
	now := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name       string
		end        *time.Time
		active     *bool
		wantChange bool
		wantActive *bool
	}{
		{"no end date", nil, Bool(true), false, Bool(true)},
		{"end in future", &future, Bool(true), false, Bool(true)},
		{"end equals now", &now, Bool(true), false, Bool(true)},
		{"end in past", &past, Bool(true), true, Bool(false)},
		{"end in past, unknown state", &past, nil, true, Bool(false)},
		{"end in past, already inactive", &past, Bool(false), false, Bool(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Event{Sales: Sales{EndDateTime: tt.end}, IsActive: tt.active}
			assert.Equal(t, tt.wantChange, ev.ExpireIfPast(now))
			assert.Equal(t, tt.wantActive, ev.IsActive)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	conf, err := GetDefaultConfig()
	if !assert.NoError(t, err) {
		return
	}
	assert.NoError(t, conf.Validate())

	conf.CountryCodes = []string{"US", "de"}
	assert.NoError(t, conf.Validate())

	conf.CountryCodes = []string{"XX1"}
	assert.Error(t, conf.Validate())

	conf.CountryCodes = nil
	conf.Storage.Driver = StorageMongo
	assert.Error(t, conf.Validate())

	conf.Storage.Driver = "postgres"
	assert.Error(t, conf.Validate())
}

func TestProviderConfigDefaults(t *testing.T) {
	var c ProviderConfig
	assert.Equal(t, time.Hour, c.Interval())
	assert.Equal(t, 30*time.Second, c.Timeout())
	c.IntervalMinutes = 5
	assert.Equal(t, 5*time.Minute, c.Interval())
}
