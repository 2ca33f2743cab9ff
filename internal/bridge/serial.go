package bridge

import (
	"fmt"

	"go.bug.st/serial"
)

// OpenSerial opens portName at baud with 8N1 framing.
func OpenSerial(portName string, baud int) (serial.Port, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return port, nil
}
