// Command operatord serves the operator-facing admin API (C6): dashboard
// login and device read/deploy access, filling in the
// "Set up HTTP router and register dashboard endpoints" TODO the teacher's
// cmd/serviceBackend left as a placeholder.
package main

import (
	"encoding/hex"
	"flag"
	"log"
	"net/http"

	"github.com/harrylevesque/wssgateway/internal/config"
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
	"github.com/harrylevesque/wssgateway/internal/operator"
	"github.com/harrylevesque/wssgateway/internal/pubsub"
	"github.com/harrylevesque/wssgateway/internal/storage"
	"github.com/harrylevesque/wssgateway/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.json", "path to operatord config file")
	username := flag.String("username", "admin", "operator account username")
	passwordHash := flag.String("passwordHash", "", "bcrypt hash for the operator account (see operator.HashPassword)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("operatord: load config: %v", err)
	}
	if cfg.OperatorJWTSecretHex == "" || cfg.OperatorCookieHashKeyHex == "" {
		log.Fatal("operatord: operatorJwtSecretHex and operatorCookieHashKeyHex are required")
	}
	if *passwordHash == "" {
		log.Fatal("operatord: -passwordHash is required (generate with operator.HashPassword)")
	}

	jwtSecret, err := hex.DecodeString(cfg.OperatorJWTSecretHex)
	if err != nil {
		log.Fatalf("operatord: decode operatorJwtSecretHex: %v", err)
	}
	cookieHashKey, err := hex.DecodeString(cfg.OperatorCookieHashKeyHex)
	if err != nil {
		log.Fatalf("operatord: decode operatorCookieHashKeyHex: %v", err)
	}

	var masterKey []byte
	if cfg.MasterKeyHex != "" {
		masterKey, err = hex.DecodeString(cfg.MasterKeyHex)
		if err != nil {
			log.Fatalf("operatord: decode masterKeyHex: %v", err)
		}
	}

	deviceStore, err := storage.NewFileDeviceStore(cfg.DataDir+"/devices", masterKey, cfg.PublicHost)
	if err != nil {
		log.Fatalf("operatord: open device store: %v", err)
	}
	scriptStore, err := storage.NewFileScriptStore(cfg.DataDir + "/scripts")
	if err != nil {
		log.Fatalf("operatord: open script store: %v", err)
	}

	// operatord and gatewayd must share one pubsub plane to reach a live
	// device session; a standalone operatord talking to a separately
	// running gatewayd would instead dial a broker-backed PubSub here.
	ps := pubsub.NewChannelPubSub()

	auth := operator.NewAuth(map[string]string{*username: *passwordHash}, jwtSecret, cookieHashKey)

	// A standalone operatord only ever sees telemetry records inserted by
	// its own process; this sink is a separate instance from gatewayd's,
	// the same split-process limitation already true of ps above.
	var telemetryInspector gatewaycore.TelemetryInspector
	if cfg.TelemetryRetention > 0 {
		telemetryInspector = telemetry.NewMemoryTelemetrySink(cfg.TelemetryRetention)
	}

	r := operator.NewRouter(operator.Deps{
		Auth:      auth,
		Store:     deviceStore,
		Lister:    deviceStore,
		Hosts:     deviceStore,
		Scripts:   scriptStore,
		Commands:  ps,
		Telemetry: telemetryInspector,
	})

	log.Println("operatord listening on", cfg.OperatorListenAddr)
	log.Fatal(http.ListenAndServe(cfg.OperatorListenAddr, r))
}
