package operator

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harrylevesque/wssgateway/internal/device"
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
	"github.com/harrylevesque/wssgateway/internal/model"
)

// Deps bundles the collaborators the operator API reads and writes
// through. Store and Scripts are the same interfaces a Gateway wires, so
// the two processes can share one set of concrete implementations or run
// against entirely separate ones. Hosts and Telemetry are optional: either may be
// nil if the backing store/sink doesn't support the capability, in which
// case the endpoints that need them degrade gracefully.
type Deps struct {
	Auth      *Auth
	Store     gatewaycore.DeviceStore
	Lister    gatewaycore.DeviceLister
	Hosts     gatewaycore.SelfHoster
	Scripts   gatewaycore.ScriptStore
	Commands  gatewaycore.CommandPublisher
	Telemetry gatewaycore.TelemetryInspector
}

// NewRouter builds the gin.Engine serving the operator API, the way the
// teacher's cmd/serviceBackend was always meant to but never filled in.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.POST("/operator/login", loginHandler(deps.Auth))

	api := r.Group("/operator")
	api.Use(deps.Auth.Middleware())
	api.GET("/devices", listDevicesHandler(deps))
	api.GET("/devices/:partId/:rowId", getDeviceHandler(deps))
	api.GET("/devices/:partId/:rowId/telemetry", recentTelemetryHandler(deps))
	api.POST("/devices/:partId/:rowId/deploy", deployHandler(deps))

	return r
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func loginHandler(auth *Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		token, err := auth.Login(c.Writer, c.Request, req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, loginResponse{Token: token})
	}
}

func listDevicesHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Lister == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "device listing not available"})
			return
		}
		records, err := deps.Lister.ListDevices(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"devices": records})
	}
}

type deviceDetailResponse struct {
	model.Record
	ConnectionString string `json:"connectionString,omitempty"`
}

func getDeviceHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := deps.Store.GetDevice(c.Request.Context(), c.Param("partId"), c.Param("rowId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		resp := deviceDetailResponse{Record: record}
		if deps.Hosts != nil {
			connStr, err := connectionString(deps.Hosts.SelfHost(), record.DeviceIdentity)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			resp.ConnectionString = connStr
		}
		c.JSON(http.StatusOK, resp)
	}
}

// connectionString builds the wssk:// URL a device or operator tool dials
// to reach identity directly on host, per §6's storage.selfHost() usage:
// ws://wssk:<hex-device-key>@<host>/wssk/<partitionKey>/<rowKey>.
func connectionString(host string, identity model.DeviceIdentity) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(identity.DeviceKeyB64)
	if err != nil {
		return "", fmt.Errorf("operator: decode device key: %w", err)
	}
	return fmt.Sprintf("ws://wssk:%s@%s/wssk/%s/%s", hex.EncodeToString(raw), host, identity.PartitionKey, identity.RowKey), nil
}

func recentTelemetryHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Telemetry == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "telemetry inspection not available"})
			return
		}
		records := deps.Telemetry.Recent(c.Param("partId"))
		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

type deployRequest struct {
	ScriptID      string `json:"scriptId" binding:"required"`
	ScriptVersion string `json:"scriptVersion" binding:"required"`
}

func deployHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req deployRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		body, err := deps.Scripts.GetScriptBody(c.Request.Context(), req.ScriptID, req.ScriptVersion)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		devicePath := c.Param("partId") + "/" + c.Param("rowId")
		cmd := device.NewUpdateCommand(req.ScriptID, req.ScriptVersion, body.ProgramBinaryHex)
		if deps.Commands == nil || !deps.Commands.PublishCommand(devicePath, cmd) {
			c.JSON(http.StatusConflict, gin.H{"status": "device not connected"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "deploy requested"})
	}
}
