package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/satishgsonwane/weldcam/mvs"
	"github.com/satishgsonwane/weldcam/session"
	"github.com/theckman/yacspin"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "weldcam.yml"
	k              = koanf.New(".")
)

func setupconfig() {
	k.Load(structs.Provider(Config{
		Addr:     ":8000",
		Endpoint: "weldcam/cam1",
		Recorder: RecorderSetup{Prefix: "weldcam-"}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `weldcamd drives a Hikvision machine vision camera and exposes an HTTP
interface to it.  This enables a server-client architecture, and the clients
can leverage the excellent HTTP libraries for any programming language.

Usage:
	weldcamd <command>

Commands:
	run
	list
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `weldcamd is amenable to configuration via its .yaml file.  For a primer
on YAML, see https://yaml.org/start.html

With no configuration, the server listens at :8000 and serves the camera
under /weldcam/cam1.  Set Mock: true to run against a simulated camera
without the vendor SDK installed.

Routes under the endpoint stem include:
	GET  /devices          enumerate attached cameras
	POST /connect          connect by enumeration index, json {"int": 0}
	POST /disconnect
	GET  /state
	POST /acquisition/start
	POST /acquisition/stop
	GET/POST /exposure-time, /gain, /frame-rate     json {"f64": ...}
	GET/POST /auto-exposure, /auto-gain             json {"bool": ...}
	GET/POST /pixel-format, /trigger-mode           json {"str": ...}
	GET/POST /resolution                            json {"width": ..., "height": ...}
	POST /trigger          fire a software trigger
	GET  /image            one frame; ?fmt=jpg|png|fits
	GET  /stream           JPEG frames over a websocket
	GET  /params           full parameter snapshot
	POST /features/save, /features/load             json {"str": "<path>"}
	GET/POST /lock         hold off mutating requests (423)

Supported cameras are GigE and USB3 Vision devices speaking the Hikvision
MvCamCtrl SDK, e.g. the MV-CE and MV-CA series.`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("weldcamd version %v\n", Version)
	if sdk, err := mvs.New(); err == nil {
		fmt.Printf("MvCamCtrl SDK %s\n", sdk.Version())
	}
}

func list() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	drv, err := buildDriver(c)
	if err != nil {
		log.Fatal(err)
	}
	spin, err := yacspin.New(yacspin.Config{
		Frequency: 100 * time.Millisecond,
		CharSet:   yacspin.CharSets[59],
		Suffix:    " enumerating cameras"})
	if err == nil {
		spin.Start()
	}
	devs, enumErr := drv.Enumerate()
	if err == nil {
		spin.Stop()
	}
	if enumErr != nil {
		log.Fatal(enumErr)
	}
	if len(devs) == 0 {
		fmt.Println("no cameras found")
		return
	}
	for _, d := range devs {
		fmt.Printf("%d\t%s\t%s\t%s\n", d.Index, d.Name, d.Serial, d.Transport)
	}
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	drv, err := buildDriver(c)
	if err != nil {
		log.Fatal(err)
	}
	sess := session.New(drv)
	go logEvents(sess)
	if c.ConnectOnStart {
		if err := connectWithRetry(sess, c.Camera); err != nil {
			log.Printf("initial connect failed: %v", err)
		}
	}
	mux := BuildMux(c, sess)
	log.Println("now listening for requests at ", c.Addr)
	log.Fatal(http.ListenAndServe(c.Addr, mux))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "list":
		list()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
