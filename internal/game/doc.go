// Package game holds the example worker's systems: walking players around a
// square and answering PlayerCreator commands.
package game
