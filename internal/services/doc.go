// Package services holds the error taxonomy and context annotation helpers
// shared by pipeline steps and control surfaces.
package services
