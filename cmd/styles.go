/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import "github.com/allbin/go-serprog/internal/tui/styles"

var (
	infoStyle    = styles.InfoStyle
	successStyle = styles.SuccessStyle
	errorStyle   = styles.ErrorStyle
	mutedStyle   = styles.MutedStyle
)
