package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Asset is one basket member.
type Asset struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Basket is the default asset set used when a request names no symbols.
type Basket struct {
	Name   string  `yaml:"name" json:"name"`
	Assets []Asset `yaml:"assets" json:"assets"`
}

// DefaultBasket returns the built-in five-stock NSE basket.
func DefaultBasket() Basket {
	return Basket{
		Name: "NSE large caps",
		Assets: []Asset{
			{Symbol: "RELIANCE.NS", Name: "Reliance Industries"},
			{Symbol: "TCS.NS", Name: "Tata Consultancy Services"},
			{Symbol: "INFY.NS", Name: "Infosys"},
			{Symbol: "HDFCBANK.NS", Name: "HDFC Bank"},
			{Symbol: "ITC.NS", Name: "ITC"},
		},
	}
}

// Symbols returns the basket symbols in order.
func (b Basket) Symbols() []string {
	out := make([]string, len(b.Assets))
	for i, a := range b.Assets {
		out[i] = a.Symbol
	}
	return out
}

// LoadBasket reads a YAML basket file. An empty path yields DefaultBasket.
func LoadBasket(path string) (Basket, error) {
	if path == "" {
		return DefaultBasket(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Basket{}, fmt.Errorf("read basket %s: %w", path, err)
	}
	return ParseBasket(data)
}

// ParseBasket decodes and normalises a YAML basket.
func ParseBasket(data []byte) (Basket, error) {
	var b Basket
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Basket{}, fmt.Errorf("parse basket: %w", err)
	}
	if len(b.Assets) == 0 {
		return Basket{}, fmt.Errorf("basket %q has no assets", b.Name)
	}
	seen := make(map[string]bool, len(b.Assets))
	for i := range b.Assets {
		sym := strings.ToUpper(strings.TrimSpace(b.Assets[i].Symbol))
		if sym == "" {
			return Basket{}, fmt.Errorf("basket asset %d has no symbol", i+1)
		}
		if seen[sym] {
			return Basket{}, fmt.Errorf("duplicate symbol in basket: %s", sym)
		}
		seen[sym] = true
		b.Assets[i].Symbol = sym
	}
	return b, nil
}
