// Package config loads concord settings from YAML with sane defaults.
// Search order is .concord.yaml then concord.yaml in the working directory;
// an explicit path always wins. Missing files fall back to defaults.
package config
