package main

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"dscheirer.com/sonardisplay/gpio"
	"dscheirer.com/sonardisplay/hcsr04"
	"dscheirer.com/sonardisplay/sevenseg_mux"
	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// settings keys
const (
	sDigitCount       = "digitCount"
	sBigEndian        = "bigEndian"
	sThreshold        = "displayThreshold"
	sSettle           = "settleDelay"
	sHold             = "holdDelay"
	sTick             = "refreshTick"
	sSegmentPins      = "segmentPins"
	sCathodePins      = "cathodePins"
	sCathodeActiveLow = "cathodeActiveLow"
	sSegmentActiveLow = "segmentActiveLow"
	sTriggerPin       = "triggerPin"
	sEchoPin          = "echoPin"
	sTransmit         = "transmitTime"
	sTrigger          = "triggerTime"
	sEchoTimeout      = "echoTimeout"
	sCalibration      = "calibrationRatio"
	sEchoTimeoutError = "echoTimeoutError"
	sGPIODriver       = "gpioDriver"
	sGPIOVerbose      = "gpioVerbose"
	sSerialPort       = "serialPort"
	sSerialBaud       = "serialBaud"
	sSerialEcho       = "serialEcho"
	sOverrideHold     = "overrideHold"
	sHTTPAddr         = "httpAddr"
	sHTTPSecret       = "httpSecret"
	sKeyboard         = "keyboardOverride"
	sDebug            = "debugDump"
	sLogFile          = "logFile"
)

const defaultConfigFile = "/etc/default/sonardisplay/sonar.conf"

// keep settings generic, type-convert on the fly
type configSettings struct {
	settings map[string]interface{}
}

func defaultSettings() *configSettings {
	s := make(map[string]interface{})

	// setting the type here makes the conversion "automatic" later
	s[sDigitCount] = 4
	s[sBigEndian] = true
	s[sThreshold] = 150
	s[sSettle] = 2 * time.Millisecond
	s[sHold] = 2 * time.Millisecond
	s[sTick] = time.Millisecond
	// A, B, C, D, E, F, G, H
	s[sSegmentPins] = []int{5, 6, 13, 19, 26, 12, 16, 20}
	// 1st, 2nd, 3rd, 4th
	s[sCathodePins] = []int{21, 7, 8, 25}
	s[sCathodeActiveLow] = true
	s[sSegmentActiveLow] = false
	s[sTriggerPin] = 23
	s[sEchoPin] = 24
	s[sTransmit] = 2 * time.Millisecond
	s[sTrigger] = 5 * time.Millisecond
	s[sEchoTimeout] = 12 * time.Millisecond
	s[sCalibration] = 29.1
	s[sEchoTimeoutError] = false
	s[sGPIOVerbose] = false
	s[sSerialPort] = ""
	s[sSerialBaud] = 9600
	s[sSerialEcho] = false
	s[sOverrideHold] = time.Second
	s[sHTTPAddr] = ""
	s[sHTTPSecret] = ""
	s[sKeyboard] = false
	s[sDebug] = false
	s[sLogFile] = "/var/log/sonardisplay.log"

	driver := gpio.DriverSim
	if runtime.GOARCH == "arm" || runtime.GOARCH == "arm64" {
		driver = gpio.DriverRPIO
	}
	s[sGPIODriver] = driver

	return &configSettings{settings: s}
}

func parseIntList(data []byte, key string) ([]int, error) {
	list := []int{}
	var inner error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if inner != nil {
			return
		}
		if dataType != jsonparser.Number {
			inner = errors.Errorf("%s: not a number: %s", key, string(value))
			return
		}
		v, perr := strconv.Atoi(string(value))
		if perr != nil {
			inner = errors.Wrap(perr, key)
			return
		}
		list = append(list, v)
	}, key)
	if err != nil {
		return nil, errors.Wrap(err, key)
	}
	return list, inner
}

func (s *configSettings) settingsFromJSON(data []byte) error {
	tmp := defaultSettings()
	for k, initVal := range tmp.settings {
		// ignore missing fields
		if _, _, _, err := jsonparser.Get(data, k); err != nil {
			continue
		}

		var err error
		switch initVal.(type) {
		case int:
			var v int64
			v, err = jsonparser.GetInt(data, k)
			if err != nil {
				// try a string, "0x17" and friends
				str, err2 := jsonparser.GetString(data, k)
				if err2 == nil {
					v, err = strconv.ParseInt(str, 0, 64)
				}
			}
			if err == nil {
				s.settings[k] = int(v)
			}
		case float64:
			var v float64
			v, err = jsonparser.GetFloat(data, k)
			if err == nil {
				s.settings[k] = v
			}
		case bool:
			var bVal bool
			bVal, err = jsonparser.GetBoolean(data, k)
			if err != nil {
				// try true and false
				str, _ := jsonparser.GetString(data, k)
				switch strings.ToLower(str) {
				case "true":
					bVal, err = true, nil
				case "false":
					bVal, err = false, nil
				}
			}
			if err == nil {
				s.settings[k] = bVal
			}
		case time.Duration:
			var dur string
			dur, err = jsonparser.GetString(data, k)
			if err == nil {
				var d time.Duration
				d, err = time.ParseDuration(dur)
				if err == nil {
					s.settings[k] = d
				}
			}
		case string:
			var str string
			str, err = jsonparser.GetString(data, k)
			if err == nil {
				s.settings[k] = str
			}
		case []int:
			var list []int
			list, err = parseIntList(data, k)
			if err == nil {
				s.settings[k] = list
			}
		default:
			err = errors.Errorf("Bad type: %T", initVal)
		}
		if err != nil {
			return errors.Wrapf(err, "setting '%s'", k)
		}
	}
	return nil
}

// initSettings reads flags from args and overlays the config file on the
// defaults.
func initSettings(args []string) (*configSettings, error) {
	log.Println("initSettings")

	s := defaultSettings()

	flags := flag.NewFlagSet("sonardisplay", flag.ContinueOnError)
	configFile := flags.String("config", defaultConfigFile, "config file path")
	sim := flags.Bool("sim", false, "use the simulated gpio bus")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	data, err := ioutil.ReadFile(*configFile)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load conf file '%s'", *configFile)
	}
	log.Printf("Reading configuration from '%s'", *configFile)

	switch strings.ToLower(filepath.Ext(*configFile)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return nil, errors.Wrapf(err, "conf file '%s'", *configFile)
		}
	}
	if err := s.settingsFromJSON(data); err != nil {
		return nil, err
	}
	if *sim {
		s.settings[sGPIODriver] = gpio.DriverSim
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// yamlToJSON lets the same key overlay read a YAML config file.
func yamlToJSON(data []byte) ([]byte, error) {
	m := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func (s *configSettings) validate() error {
	cfg := s.displayConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if n := len(s.GetIntList(sSegmentPins)); n != sevenseg_mux.SegmentCount {
		return errors.Errorf("%s needs %d pins, got %d", sSegmentPins, sevenseg_mux.SegmentCount, n)
	}
	if n := len(s.GetIntList(sCathodePins)); n != cfg.Digits {
		return errors.Errorf("%s needs %d pins, got %d", sCathodePins, cfg.Digits, n)
	}
	sensor := s.sensorConfig()
	if sensor.Transmit < 0 || sensor.Trigger < 0 {
		return errors.Errorf("trigger timing must not be negative: %v, %v", sensor.Transmit, sensor.Trigger)
	}
	if sensor.EchoTimeout <= 0 {
		return errors.Errorf("%s must be positive", sEchoTimeout)
	}
	if sensor.Calibration <= 0 {
		return errors.Errorf("%s must be positive", sCalibration)
	}
	if s.GetDuration(sOverrideHold) < 0 {
		return errors.Errorf("%s must not be negative", sOverrideHold)
	}
	return nil
}

func (s *configSettings) displayConfig() sevenseg_mux.Config {
	order := sevenseg_mux.MostSignificantFirst
	if !s.GetBool(sBigEndian) {
		order = sevenseg_mux.LeastSignificantFirst
	}
	return sevenseg_mux.Config{
		Digits:           s.GetInt(sDigitCount),
		Order:            order,
		Threshold:        int64(s.GetInt(sThreshold)),
		Settle:           s.GetDuration(sSettle),
		Hold:             s.GetDuration(sHold),
		Tick:             s.GetDuration(sTick),
		CathodeActiveLow: s.GetBool(sCathodeActiveLow),
		SegmentActiveLow: s.GetBool(sSegmentActiveLow),
	}
}

func (s *configSettings) sensorConfig() hcsr04.Config {
	return hcsr04.Config{
		Transmit:    s.GetDuration(sTransmit),
		Trigger:     s.GetDuration(sTrigger),
		EchoTimeout: s.GetDuration(sEchoTimeout),
		Calibration: s.GetFloat(sCalibration),
	}
}

func (s *configSettings) GetString(key string) string {
	switch v := s.settings[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func (s *configSettings) GetBool(key string) bool {
	switch v := s.settings[key].(type) {
	case bool:
		return v
	default:
		return false
	}
}

func (s *configSettings) GetDuration(key string) time.Duration {
	switch v := s.settings[key].(type) {
	case time.Duration:
		return v
	default:
		return -1
	}
}

func (s *configSettings) GetInt(key string) int {
	switch v := s.settings[key].(type) {
	case int:
		return v
	default:
		return 0
	}
}

func (s *configSettings) GetFloat(key string) float64 {
	switch v := s.settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (s *configSettings) GetIntList(key string) []int {
	switch v := s.settings[key].(type) {
	case []int:
		return v
	default:
		return nil
	}
}

func (s *configSettings) Dump() {
	keys := make([]string, 0, len(s.settings))
	for k := range s.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == sHTTPSecret {
			log.Printf("%s : (hidden)", k)
			continue
		}
		v := s.settings[k]
		log.Printf("%s : %T: %v", k, v, v)
	}
}
