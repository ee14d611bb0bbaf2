package app

const (
	fyneAppID   = "studio.yashubu.churnpredictor"
	windowTitle = "Telco Customer Churn Prediction"

	windowWidth  = 1180
	windowHeight = 820

	defaultConfigPath = "config.json"
)
