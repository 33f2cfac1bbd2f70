package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harsheyeditor/OneBlood/core/model"
)

type DonorDef struct {
	ID                  string  `yaml:"id"`
	BloodType           string  `yaml:"blood_type"`
	Lat                 float64 `yaml:"lat"`
	Lon                 float64 `yaml:"lon"`
	Available           bool    `yaml:"available"`
	LastDonationDaysAgo int     `yaml:"last_donation_days_ago,omitempty"`
	PastResponses       int     `yaml:"past_responses,omitempty"`
	PastIgnored         int     `yaml:"past_ignored,omitempty"`
}

func (d DonorDef) ToModel(now time.Time) model.Donor {
	donor := model.Donor{
		ID:        d.ID,
		BloodType: model.BloodType(d.BloodType),
		Location:  model.GeoPoint{Lat: d.Lat, Lon: d.Lon},
		Available: d.Available,
	}
	if d.LastDonationDaysAgo > 0 {
		last := now.Add(-time.Duration(d.LastDonationDaysAgo) * 24 * time.Hour)
		donor.LastDonationAt = &last
	}
	minutes := 10.0
	for i := 0; i < d.PastResponses; i++ {
		donor.ResponseHistory = append(donor.ResponseHistory, model.ResponseRecord{
			RequestID: "past", Responded: true, ResponseTimeMinutes: &minutes,
		})
	}
	for i := 0; i < d.PastIgnored; i++ {
		donor.ResponseHistory = append(donor.ResponseHistory, model.ResponseRecord{
			RequestID: "past", Responded: false,
		})
	}
	return donor
}

type RequestDef struct {
	BloodType string  `yaml:"blood_type"`
	Urgency   string  `yaml:"urgency"`
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
}

func (r RequestDef) ToModel(now time.Time) *model.BloodRequest {
	return model.NewBloodRequest(
		"scenario-req",
		model.Contact{Name: "scenario"},
		model.GeoPoint{Lat: r.Lat, Lon: r.Lon},
		model.BloodType(r.BloodType),
		model.Urgency(r.Urgency),
		"",
		now,
	)
}

type Expected struct {
	Candidates int    `yaml:"candidates"`
	First      string `yaml:"first,omitempty"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Donors      []DonorDef `yaml:"donors"`
	Request     RequestDef `yaml:"request"`
	Expected    Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
