// Package pipeline enriches JSON records with resolved identities.
package pipeline
