package main

import (
	"fmt"
	"log"

	qrcode "github.com/skip2/go-qrcode"
)

// printRoomQR renders the room code as a terminal QR so other players can
// scan it instead of typing the code.
func printRoomQR(roomID string) {
	qr, err := qrcode.New(roomID, qrcode.Medium)
	if err != nil {
		log.Printf("qr generation failed: %v", err)
		return
	}
	fmt.Print(qr.ToSmallString(false))
}
