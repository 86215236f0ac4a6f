// Package game defines the example game components: PlayerCreator, which
// serves the CreatePlayer command, and Player.
package game
