package main

import (
	"fmt"

	"github.com/fatih/color"
)

//         _         _
//    __ _ | |  ___  | |__    __ _   ___   __ _  _ __ ___
//   / _` || | / _ \ | '_ \  / _` | / __| / _` || '_ ` _ \
//  | (_| || || (_) || | | || (_| || (__ | (_| || | | | | |
//   \__,_||_| \___/ |_| |_| \__,_| \___| \__,_||_| |_| |_|
var letters = [][5]string{
	{"        ", "   __ _ ", "  / _` |", " | (_| |", "  \\__,_|"},
	{" _ ", "| |", "| |", "| |", "|_|"},
	{"       ", "  ___  ", " / _ \\ ", "| (_) |", " \\___/ "},
	{" _     ", "| |__  ", "| '_ \\ ", "| | | |", "|_| |_|"},
	{"       ", "  __ _ ", " / _` |", "| (_| |", " \\__,_|"},
	{"      ", "  ___ ", " / __|", "| (__ ", " \\___|"},
	{"       ", "  __ _ ", " / _` |", "| (_| |", " \\__,_|"},
	{"           ", " _ __ ___  ", "| '_ ` _ \\ ", "| | | | | |", "|_| |_| |_|"},
}

// banner prints the name in the same colors as the help of our other tools.
func banner() {
	colors := []*color.Color{
		color.New(color.FgRed),
		color.New(color.FgYellow),
		color.New(color.FgCyan),
		color.New(color.FgYellow),
	}
	for line := 0; line < 5; line++ {
		for i, letter := range letters {
			colors[i%len(colors)].Print(letter[line])
		}
		fmt.Println()
	}
	fmt.Println()
}

func version() {
	tag := GitTag
	if tag == "" {
		tag = "dev"
	}
	color.New(color.FgCyan, color.Bold).Print("alohacamd ")
	fmt.Println(tag, GitRevisionId)
	fmt.Println("Copyright 2019 Lanikai Labs LLC. All rights reserved.")
	fmt.Println("Visit https://lanikailabs.com for more information")
}
