// Command gatewayd serves the device-facing websocket gateway (C5): the
// §4.2 handshake, §5 record dispatch, and §6 collaborator wiring, over a
// gorilla/mux router the same way the teacher's cmd/server wires
// api.NewRouter.
package main

import (
	"crypto/tls"
	"encoding/hex"
	"flag"
	"log"
	"net/http"

	"github.com/harrylevesque/wssgateway/internal/config"
	"github.com/harrylevesque/wssgateway/internal/deploy"
	"github.com/harrylevesque/wssgateway/internal/gateway"
	"github.com/harrylevesque/wssgateway/internal/logging"
	"github.com/harrylevesque/wssgateway/internal/metrics"
	"github.com/harrylevesque/wssgateway/internal/pubsub"
	"github.com/harrylevesque/wssgateway/internal/storage"
	"github.com/harrylevesque/wssgateway/internal/telemetry"
	"github.com/harrylevesque/wssgateway/internal/tlsutil"
)

func main() {
	configPath := flag.String("config", "config.json", "path to gatewayd config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("gatewayd: load config: %v", err)
	}

	logger, err := logging.New(cfg.LogFile)
	if err != nil {
		log.Fatalf("gatewayd: open log: %v", err)
	}
	defer logger.Close()
	go logger.RotateDaily()

	var masterKey []byte
	if cfg.MasterKeyHex != "" {
		masterKey, err = hex.DecodeString(cfg.MasterKeyHex)
		if err != nil {
			log.Fatalf("gatewayd: decode masterKeyHex: %v", err)
		}
	}

	auth, err := storage.NewFileAuthResolver(cfg.DataDir + "/auth")
	if err != nil {
		log.Fatalf("gatewayd: open auth store: %v", err)
	}
	deviceStore, err := storage.NewFileDeviceStore(cfg.DataDir+"/devices", masterKey, cfg.PublicHost)
	if err != nil {
		log.Fatalf("gatewayd: open device store: %v", err)
	}
	scriptStore, err := storage.NewFileScriptStore(cfg.DataDir + "/scripts")
	if err != nil {
		log.Fatalf("gatewayd: open script store: %v", err)
	}

	ps := pubsub.NewChannelPubSub()
	ps.OnEvent(func(devicePath string, message any) {
		logger.InfoFields("device_event", logging.Fields{"devicePath": devicePath})
	})

	collab := gateway.Collaborators{
		Auth:          auth,
		Store:         deviceStore,
		Scripts:       scriptStore,
		PubSub:        ps,
		Parser:        telemetry.DecodingTelemetryParser{},
		Sink:          telemetry.NewSink(cfg.TelemetryRetention),
		Metrics:       metrics.NewLogMetrics(logger),
		DeployBackoff: deploy.NewBackoff(),
		Logger:        logger,
	}

	g := gateway.New(collab)

	logger.Info("gatewayd listening on " + cfg.ListenAddr)
	log.Println("gatewayd listening on", cfg.ListenAddr)

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		cm := tlsutil.NewCertManager(cfg.TLSClientCADir)
		cert, err := cm.LoadServerKeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			log.Fatalf("gatewayd: load TLS keypair: %v", err)
		}
		tlsConfig := &tls.Config{Certificates: []tls.Certificate{cert}}
		if cfg.TLSClientCADir != "" {
			pool, err := cm.ClientCAPool()
			if err != nil {
				log.Fatalf("gatewayd: load client CA pool: %v", err)
			}
			tlsConfig.ClientCAs = pool
			tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
		}
		srv := &http.Server{Addr: cfg.ListenAddr, Handler: g.Router(), TLSConfig: tlsConfig}
		log.Fatal(srv.ListenAndServeTLS("", ""))
		return
	}
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, g.Router()))
}
