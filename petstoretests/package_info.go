// Package petstoretests is the catalogue of functional scenarios and load plans for the
// pet store service. The scenarios are plain data run by framework/scenario; the plans
// are run by framework/load.
package petstoretests
