package api

import "time"

// AlertmanagerAlert is one alert within an Alertmanager webhook
// payload, modelled on kube-rca-backend's model.Alert.
type AlertmanagerAlert struct {
	Status       string            `json:"status"`
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     time.Time         `json:"startsAt"`
	EndsAt       time.Time         `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint"`
}

// AlertmanagerWebhook is the top-level payload Alertmanager POSTs,
// modelled on kube-rca-backend's model.AlertmanagerWebhook.
type AlertmanagerWebhook struct {
	Version  string              `json:"version"`
	Receiver string              `json:"receiver"`
	Status   string              `json:"status"`
	Alerts   []AlertmanagerAlert `json:"alerts"`
}
