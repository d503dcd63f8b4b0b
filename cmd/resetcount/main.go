package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"

	"github.com/robotalks/swbridge.go/pkg/persist"
)

var programmer = "avrispmkii"

func init() {
	flag.StringVar(&programmer, "programmer", programmer, "avrdude programmer, used when no image file is given")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [IMAGE-FILE|-]\n", os.Args[0])
		flag.PrintDefaults()
	}
}

// readEEPROM dumps the EEPROM of the main controller with avrdude.
func readEEPROM() ([]byte, error) {
	args := []string{"-qq", "-p", "atmega328p", "-c", programmer, "-P", "usb", "-U", "eeprom:r:-:r"}
	var out bytes.Buffer
	cmd := exec.Command("avrdude", args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err == nil {
		return out.Bytes(), nil
	}
	fmt.Printf("Connect the %q programmer to the computer and to the main microcontroller ISCP port.\n", programmer)
	fmt.Print("Press Enter to continue. ")
	fmt.Scanln()
	out.Reset()
	cmd = exec.Command("avrdude", args...)
	cmd.Stdout, cmd.Stderr = &out, os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func readImage(name string) (*persist.Image, error) {
	var r io.Reader
	switch name {
	case "":
		data, err := readEEPROM()
		if err != nil {
			return nil, err
		}
		return persist.LoadImage(data)
	case "-":
		r = os.Stdin
	default:
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return persist.ReadImage(r)
}

func main() {
	flag.Parse()
	img, err := readImage(flag.Arg(0))
	if err != nil {
		log.Fatalf("Unexpected EEPROM image: %v", err)
	}
	count, err := persist.ScanResetCount(img)
	if err == persist.ErrNoCount {
		log.Fatalln("No reset count found (EEPROM was probably erased)")
	}
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Printf("%d resets\n", count)
}
