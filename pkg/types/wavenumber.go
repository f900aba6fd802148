package types

import "fmt"

// Wavenumber is an energy expressed in cm⁻¹, the unit scattering codes
// tabulate collision and internal energies in.
type Wavenumber float64

const (
	meVPerWavenumber    = 0.1239841984 // 1 cm⁻¹ in meV
	kelvinPerWavenumber = 1.438776877  // 1 cm⁻¹ in K (hc/k_B)
)

// Humanized returns the value with its unit, e.g. "221.9215 cm⁻¹".
func (w Wavenumber) Humanized() string {
	return fmt.Sprintf("%.4f cm⁻¹", float64(w))
}

// MeV returns the energy in milli-electronvolts.
func (w Wavenumber) MeV() float64 { return float64(w) * meVPerWavenumber }

// Kelvin returns the equivalent temperature E/k_B.
func (w Wavenumber) Kelvin() float64 { return float64(w) * kelvinPerWavenumber }

// Describe renders the value in cm⁻¹ with meV and K equivalents.
func (w Wavenumber) Describe() string {
	return fmt.Sprintf("%s (%.3f meV, %.2f K)", w.Humanized(), w.MeV(), w.Kelvin())
}
