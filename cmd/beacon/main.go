// Command beacon is the composition root wiring every SPEC_FULL.md module
// into a running device: the parameter store, scheduler, service manager,
// lifecycle state machine and local control-protocol transport, backed on a
// development machine by hardware/sim's bring-up peripherals in place of the
// chip-level drivers §1 places out of scope.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arribada/horizon-core/argos"
	"github.com/arribada/horizon-core/battery"
	"github.com/arribada/horizon-core/gnss"
	"github.com/arribada/horizon-core/hal"
	"github.com/arribada/horizon-core/hardware/dteserial"
	"github.com/arribada/horizon-core/hardware/sim"
	"github.com/arribada/horizon-core/hardware/systimer"
	"github.com/arribada/horizon-core/hardware/topgnss/top708"
	"github.com/arribada/horizon-core/metrics"
	"github.com/arribada/horizon-core/paramstore"
	"github.com/arribada/horizon-core/protocol"
	"github.com/arribada/horizon-core/scheduler"
	"github.com/arribada/horizon-core/sensors"
	"github.com/arribada/horizon-core/service"
	"github.com/arribada/horizon-core/statemachine"
	"github.com/arribada/horizon-core/underwater"
)

// runPeriodMs is how often main's own loop drives scheduler.Scheduler.Run,
// standing in for the reference firmware's idle-loop tick.
const runPeriodMs = 50 * time.Millisecond

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "beacon",
		Short: "Run the satellite asset-tracker beacon core",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "beacon.yaml", "path to the beacon's YAML configuration file")
	return cmd
}

func run(ctx context.Context, cfg Config) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fs := sim.NewFilesystem(cfg.DataDir)
	store := paramstore.New(paramstore.NewFilePersister(fs, fs.Open("params.bin")))

	timer := systimer.New()
	if err := timer.Start(); err != nil {
		return fmt.Errorf("start timer: %w", err)
	}
	sched := scheduler.New(timer, log)

	gestures := sim.NewGestures()
	rtc := sim.NewRTC()
	batteryMonitor := sim.NewBattery(4000)
	store.SetDynamicSource(battery.NewSOCSource(batteryMonitor))
	argosRadio := sim.NewArgosRadio(log.WithField("component", "argos-radio"))
	aopStore := argos.NewFileAOPPersister(fs.Open("aop.bin"))

	gnssDevice := hal.GNSSDevice(top708.NewHALAdapter(
		top708.NewTOP708Device(top708.NewGNSSSerialPort()),
		cfg.GNSS.SerialPort,
		cfg.GNSS.BaudRate,
	))

	manager := service.NewManager()

	systemLog := sim.NewFileLog(filepath.Join(cfg.DataDir, "system.log"), nil)
	gnssLog := sim.NewFileLog(filepath.Join(cfg.DataDir, "gnss.log"), nil)
	argosLog := sim.NewFileLog(filepath.Join(cfg.DataDir, "argos.log"), nil)
	underwaterLog := sim.NewFileLog(filepath.Join(cfg.DataDir, "underwater.log"), nil)
	batteryLog := sim.NewFileLog(filepath.Join(cfg.DataDir, "battery.log"), nil)
	for _, l := range []*sim.FileLog{systemLog, gnssLog, argosLog, underwaterLog, batteryLog} {
		if err := l.Create(); err != nil {
			return fmt.Errorf("create log: %w", err)
		}
	}

	gnssService := gnss.New(gnssDevice, store, rtc, batteryMonitor, sched, log.WithField("service", "gnss"))
	gnssBase := service.NewBase(service.ServiceGNSS, "gnss", gnssService, sched, gnssLog, log)
	gnssService.SetBase(gnssBase)
	manager.Add(gnssBase)

	argosScheduler := argos.New(argosRadio, store, gnssLog, batteryMonitor, aopStore, sched, log.WithField("service", "argos"))
	argosBase := service.NewBase(service.ServiceArgos, "argos", argosScheduler, sched, argosLog, log)
	argosScheduler.SetBase(argosBase)
	manager.Add(argosBase)

	batteryService := battery.New(batteryMonitor, store, log.WithField("service", "battery"))
	batteryBase := service.NewBase(service.ServiceBattery, "battery", batteryService, sched, batteryLog, log)
	batteryService.SetBase(batteryBase)
	manager.Add(batteryBase)

	underwaterSource := underwater.NewSensorSource(sim.NewSensor(1), func() float64 {
		v, _ := store.Read(paramstore.UnderwaterDetectThreshold)
		f, _ := v.AsFloat()
		return f
	})
	underwaterDetector := underwater.New(underwaterSource, store, log.WithField("service", "underwater"))
	underwaterBase := service.NewBase(service.ServiceUnderwater, "underwater", underwaterDetector, sched, underwaterLog, log)
	underwaterDetector.SetBase(underwaterBase)
	manager.Add(underwaterBase)

	wireSensorServices(manager, sched, store, log, cfg.DataDir)

	calibrated := map[string]hal.Calibratable{
		"ph":                      sim.NewCalibration(),
		"pressure":                sim.NewCalibration(),
		"ambient_light":           sim.NewCalibration(),
		"sea_temperature":         sim.NewCalibration(),
		"conductivity_depth_temp": sim.NewCalibration(),
	}
	mem := sim.NewMemoryDiagnostic(make([]byte, 4096))

	logs := map[string]hal.Logger{
		"system":     systemLog,
		"gnss":       gnssLog,
		"argos":      argosLog,
		"underwater": underwaterLog,
		"battery":    batteryLog,
	}
	handler := protocol.New(store, logs, log.WithField("component", "protocol"), argosRadio, aopStore, calibrated, mem)

	controlTransport := dteserial.New(cfg.Control.SerialPort, cfg.Control.BaudRate)

	machine := statemachine.New(sched, fs, gestures, store, manager, controlTransport, handler, log.WithField("component", "statemachine"))
	machine.SetEventListener(func(e service.Event) {
		if e.Type == service.EventInactive && e.Source == service.ServiceUnderwater {
			manager.NotifyUnderwaterState(false)
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	httpServer := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	machine.Start()

	ticker := time.NewTicker(runPeriodMs)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("beacon: shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			httpServer.Shutdown(shutdownCtx)
			shutdownCancel()
			manager.StopAll()
			return nil
		case <-ticker.C:
			sched.Run()
		}
	}
}

// wireSensorServices registers the six typed environmental-sensor services
// against simulated hal.Sensor peripherals, each logging to its own named
// file. ConductivityDepthTemp and Accelerometer have no dedicated
// enable/tx-mode parameters in the table (unlike PH/Pressure/AmbientLight/
// SeaTemperature), so they default to always-enabled; Accelerometer has no
// tx-mode at all since it has no separate satellite payload, only a log.
func wireSensorServices(manager *service.Manager, sched *scheduler.Scheduler, store *paramstore.Store, log logrus.FieldLogger, dataDir string) {
	const samplePeriodMs = 30000
	const txPeriodMs = 600000

	boolParam := func(id paramstore.ParamID) func() bool {
		return func() bool {
			v, err := store.Read(id)
			if err != nil {
				return false
			}
			b, _ := v.AsBool()
			return b
		}
	}
	txModeParam := func(id paramstore.ParamID) func() sensors.TxMode {
		return func() sensors.TxMode {
			v, err := store.Read(id)
			if err != nil {
				return sensors.TxModeOff
			}
			e, _ := v.AsEnum()
			return sensors.TxMode(e)
		}
	}
	always := func() bool { return true }
	mean := func() sensors.TxMode { return sensors.TxModeMean }
	periodic := func() uint32 { return samplePeriodMs }
	txPeriodic := func() uint32 { return txPeriodMs }

	phSensor, phFmt := sensors.NewPH(sim.NewSensor(1), boolParam(paramstore.PHSensorEnable), periodic, txPeriodic, txModeParam(paramstore.PHSensorEnableTxMode))
	addSensorService(manager, sched, log, dataDir, service.ServicePH, "ph", phSensor, phFmt)

	ctdSensor, ctdFmt := sensors.NewConductivityDepthTemp(sim.NewSensor(3), always, periodic, txPeriodic, mean)
	addSensorService(manager, sched, log, dataDir, service.ServiceConductivityDepthTemp, "conductivity_depth_temp", ctdSensor, ctdFmt)

	pressureSensor, pressureFmt := sensors.NewPressure(sim.NewSensor(1), boolParam(paramstore.PressureSensorEnable), periodic, txPeriodic, txModeParam(paramstore.PressureSensorEnableTxMode))
	addSensorService(manager, sched, log, dataDir, service.ServicePressure, "pressure", pressureSensor, pressureFmt)

	alsSensor, alsFmt := sensors.NewAmbientLight(sim.NewSensor(1), boolParam(paramstore.ALSSensorEnable), periodic, txPeriodic, txModeParam(paramstore.ALSSensorEnableTxMode))
	addSensorService(manager, sched, log, dataDir, service.ServiceAmbientLight, "ambient_light", alsSensor, alsFmt)

	seaTempSensor, seaTempFmt := sensors.NewSeaTemperature(sim.NewSensor(1), boolParam(paramstore.SeaTempSensorEnable), periodic, txPeriodic, txModeParam(paramstore.SeaTempSensorEnableTxMode))
	addSensorService(manager, sched, log, dataDir, service.ServiceSeaTemperature, "sea_temperature", seaTempSensor, seaTempFmt)

	axlSensor, axlFmt := sensors.NewAccelerometer(sim.NewSensor(3), always, periodic)
	addSensorService(manager, sched, log, dataDir, service.ServiceAccelerometer, "accelerometer", axlSensor, axlFmt)
}

// sensorBehavior is the method set every typed sensors wrapper (PHSensor,
// ConductivityDepthTempSensor, ...) satisfies by embedding *sensors.Generic.
type sensorBehavior interface {
	service.Behavior
	SetBase(*service.Base)
}

func addSensorService(manager *service.Manager, sched *scheduler.Scheduler, log logrus.FieldLogger, dataDir string, id service.ServiceIdentifier, name string, behavior sensorBehavior, formatter hal.LogFormatter) {
	l := sim.NewFileLog(filepath.Join(dataDir, name+".log"), formatter)
	_ = l.Create()
	base := service.NewBase(id, name, behavior, sched, l, log)
	behavior.SetBase(base)
	manager.Add(base)
}
