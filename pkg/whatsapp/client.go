package whatsapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	qrTerminal "github.com/mdp/qrterminal/v3"
	gocache "github.com/patrickmn/go-cache"
	qrCode "github.com/skip2/go-qrcode"
	"golang.org/x/net/proxy"
	"google.golang.org/protobuf/proto"

	// SQL drivers matched by normalizeDatastoreDriver
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"

	"github.com/gdbrns/go-whatsapp-crm-gateway/internal/webhook"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

var WhatsAppDatastore *sqlstore.Container

var (
	clientMu sync.RWMutex
	cli      *whatsmeow.Client

	WhatsAppClientProxyURL string

	ErrNoClient              = errors.New("WhatsApp Client is not Valid")
	ErrInvalidGroupID        = errors.New("WhatsApp Group ID is Not Group Server")
	ErrParticipantMustBeUser = errors.New("WhatsApp Participant ID must be a Personal JID")
	ErrMessageNotCached      = errors.New("WhatsApp Message is Not Found in Message Cache")
	ErrInvalidNewsletterID   = errors.New("WhatsApp Newsletter ID is Not Newsletter Server")

	datastoreDriver string
	datastoreDSN    string

	messageCache  *MessageCache
	groupCache    = gocache.New(2*time.Minute, 5*time.Minute)
	webhookEngine *webhook.Engine
)

var version struct {
	Major int
	Minor int
	Patch int
}

const (
	qrChannelWaitTimeout    = 2 * time.Minute
	pairPhoneRequestTimeout = 90 * time.Second
	logoutRequestTimeout    = 30 * time.Second
	stateCleanupTimeout     = 5 * time.Second
)

func init() {
	dbType := env.GetEnvStringOrDefault("WHATSAPP_DATASTORE_TYPE", "sqlite")
	normalizedDriver := normalizeDatastoreDriver(dbType)

	dbURI, err := env.GetEnvString("WHATSAPP_DATASTORE_URI")
	if err != nil {
		if normalizedDriver != "sqlite" {
			log.Print(nil).WithError(err).Fatal("WHATSAPP_DATASTORE_URI is required for driver " + normalizedDriver)
		}
		dbURI, err = defaultSQLiteDSN()
		if err != nil {
			log.Print(nil).WithError(err).Fatal("Error resolving default datastore path")
		}
	}

	dbURI = normalizeDatastoreDSN(normalizedDriver, dbURI)

	datastoreDriver = normalizedDriver
	datastoreDSN = dbURI

	log.Print(nil).Info("Initializing WhatsApp datastore with driver=" + normalizedDriver)

	datastore, err := sqlstore.New(context.Background(), normalizedDriver, dbURI, nil)
	if err != nil {
		log.Print(nil).WithError(err).Fatal("Failed to initialize WhatsApp client datastore")
	}

	WhatsAppClientProxyURL, _ = env.GetEnvString("WHATSAPP_PROXY_URL")

	WhatsAppDatastore = datastore

	if err := upgradeDatastoreSchema(context.Background()); err != nil {
		log.Print(nil).WithError(err).Fatal("Failed to upgrade datastore schema")
	}

	db, err := openGatewayDB()
	if err != nil {
		log.Print(nil).WithError(err).Fatal("Error initializing gateway datastore")
	}

	webhookStore, err := webhook.NewStore(db, gatewayDialect())
	if err != nil {
		log.Print(nil).WithError(err).Fatal("Error initializing webhook store")
	}
	webhookEngine = webhook.NewEngine(webhookStore)

	messageCache = newMessageCacheFromEnv()
	initSendLimiter()

	log.Print(nil).Info("database is ok")
}

// defaultSQLiteDSN places the datastore in a storages directory beside the
// executable so the gateway boots with zero configuration.
func defaultSQLiteDSN() (string, error) {
	exPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(filepath.Dir(exPath), "storages")
	if err := os.MkdirAll(dir, 0o751); err != nil {
		return "", err
	}
	return "file:" + filepath.Join(dir, "whatsapp.db"), nil
}

func upgradeDatastoreSchema(ctx context.Context) error {
	if WhatsAppDatastore == nil {
		return errors.New("whatsapp datastore not initialized")
	}

	if err := WhatsAppDatastore.Upgrade(ctx); err != nil {
		return fmt.Errorf("upgrade operation failed: %w", err)
	}

	return nil
}

// normalizeDatastoreDriver maps the accepted WHATSAPP_DATASTORE_TYPE values
// to registered sql driver names. "postgres" stays on lib/pq (whatsmeow's
// documented dialect), "postgresql"/"pgx" use the pgx stdlib driver, and
// sqlite variants use the CGO-free modernc driver.
func normalizeDatastoreDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgresql", "pgx":
		return "pgx"
	case "postgres":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(driver)
	}
}

func normalizeDatastoreDSN(driver string, dsn string) string {
	appendParam := func(current string, key string, value string) string {
		if strings.Contains(current, key+"=") {
			return current
		}
		separator := "?"
		if strings.Contains(current, "?") {
			if strings.HasSuffix(current, "?") || strings.HasSuffix(current, "&") {
				separator = ""
			} else {
				separator = "&"
			}
		}
		return current + separator + key + "=" + value
	}

	switch driver {
	case "pgx":
		dsn = appendParam(dsn, "prefer_simple_protocol", "true")
		dsn = appendParam(dsn, "statement_cache_capacity", "0")
		dsn = appendParam(dsn, "default_query_exec_mode", "simple_protocol")
	case "sqlite":
		if !strings.Contains(dsn, "_pragma=foreign_keys") {
			dsn = appendParam(dsn, "_pragma", "foreign_keys(1)")
		}
		if !strings.Contains(dsn, "_pragma=busy_timeout") {
			dsn = dsn + "&_pragma=busy_timeout(3000)"
		}
	}
	return dsn
}

func currentClient() (*whatsmeow.Client, error) {
	clientMu.RLock()
	client := cli
	clientMu.RUnlock()
	if client == nil {
		return nil, ErrNoClient
	}
	return client, nil
}

func setClient(client *whatsmeow.Client) {
	clientMu.Lock()
	cli = client
	clientMu.Unlock()
}

func clearClient() {
	clientMu.Lock()
	cli = nil
	clientMu.Unlock()
}

func WhatsAppHasClient() bool {
	clientMu.RLock()
	defer clientMu.RUnlock()
	return cli != nil
}

func maskJIDForLog(jid string) string {
	if len(jid) < 4 {
		return jid
	}
	return jid[0:len(jid)-4] + "xxxx"
}

// WhatsAppInitClient builds the single client handle around the given device
// record (nil means a fresh unpaired device). Reconnection is owned by the
// watcher, so the library's auto reconnect stays off.
func WhatsAppInitClient(device *store.Device) {
	var err error

	if WhatsAppHasClient() {
		return
	}

	if device == nil {
		device = WhatsAppDatastore.NewDevice()
	}

	store.DeviceProps.Os = proto.String(env.GetEnvStringOrDefault("WHATSAPP_CLIENT_OS_NAME", runtime.GOOS))
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
	store.DeviceProps.RequireFullSync = proto.Bool(false)

	version.Major, err = env.GetEnvInt("WHATSAPP_VERSION_MAJOR")
	if err == nil {
		store.DeviceProps.Version.Primary = proto.Uint32(uint32(version.Major))
	}
	version.Minor, err = env.GetEnvInt("WHATSAPP_VERSION_MINOR")
	if err == nil {
		store.DeviceProps.Version.Secondary = proto.Uint32(uint32(version.Minor))
	}
	version.Patch, err = env.GetEnvInt("WHATSAPP_VERSION_PATCH")
	if err == nil {
		store.DeviceProps.Version.Tertiary = proto.Uint32(uint32(version.Patch))
	}

	client := whatsmeow.NewClient(device, nil)

	if len(WhatsAppClientProxyURL) > 0 {
		applyClientProxy(client, WhatsAppClientProxyURL)
	}

	client.EnableAutoReconnect = false
	client.AutoTrustIdentity = env.GetEnvBoolOrDefault("WHATSAPP_AUTO_TRUST_IDENTITY", true)

	client.AddEventHandler(handleWhatsAppEvents)

	setClient(client)
}

// applyClientProxy wires either an HTTP proxy or a SOCKS5 dialer depending
// on the configured scheme.
func applyClientProxy(client *whatsmeow.Client, proxyURL string) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		log.Print(nil).WithError(err).Warn("Ignoring unparseable WHATSAPP_PROXY_URL")
		return
	}

	if parsed.Scheme == "socks5" || parsed.Scheme == "socks5h" {
		var auth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &proxy.Auth{User: parsed.User.Username(), Password: password}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			log.Print(nil).WithError(err).Warn("Failed to build SOCKS5 proxy dialer")
			return
		}
		client.SetSOCKSProxy(dialer)
		return
	}

	client.SetProxyAddress(proxyURL)
}

func WhatsAppGenerateQR(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) (string, int, bool, error) {
	for {
		select {
		case <-ctx.Done():
			return "", 0, false, ctx.Err()
		case evt, ok := <-qrChan:
			if !ok {
				return "", 0, false, errors.New("whatsapp qr channel closed before delivering a code")
			}
			switch {
			case evt.Event == "code":
				qrPNG, err := qrCode.Encode(evt.Code, qrCode.Medium, 256)
				if err != nil {
					return "", 0, false, err
				}
				timeout := int(evt.Timeout.Seconds())
				return base64.StdEncoding.EncodeToString(qrPNG), timeout, false, nil
			case evt.Event == whatsmeow.QRChannelSuccess.Event:
				return "", 0, true, nil
			case evt.Event == whatsmeow.QRChannelTimeout.Event:
				return "", 0, false, errors.New("whatsapp qr channel timed out")
			case evt.Event == whatsmeow.QRChannelErrUnexpectedEvent.Event:
				return "", 0, false, errors.New("whatsapp qr channel entered an unexpected state")
			case evt.Event == whatsmeow.QRChannelClientOutdated.Event:
				return "", 0, false, ErrWAVersionOutdatedForQR
			case evt.Event == whatsmeow.QRChannelScannedWithoutMultidevice.Event:
				return "", 0, false, errors.New("whatsapp qr scanned without multi-device enabled")
			case evt.Event == "error":
				if evt.Error != nil {
					return "", 0, false, evt.Error
				}
				return "", 0, false, errors.New("whatsapp qr channel reported an unspecified error")
			}
		}
	}
}

// WhatsAppLogin starts the QR pairing flow for an unpaired session, or
// reconnects a paired one. Returns a data-URI PNG and its validity window.
func WhatsAppLogin() (string, int, error) {
	client, err := currentClient()
	if err != nil {
		return "", 0, err
	}

	client.Disconnect()

	if client.Store.ID == nil {
		ctx, cancel := context.WithTimeout(context.Background(), qrChannelWaitTimeout)
		defer cancel()

		qrChanGenerate, err := client.GetQRChannel(ctx)
		if err != nil {
			return "", 0, err
		}

		err = client.Connect()
		if err != nil {
			return "", 0, err
		}

		qrImage, qrTimeout, paired, err := WhatsAppGenerateQR(ctx, qrChanGenerate)
		if err != nil {
			return "", 0, err
		}
		if paired {
			return "WhatsApp Client is already paired", 0, nil
		}

		return "data:image/png;base64," + qrImage, qrTimeout, nil
	}

	err = WhatsAppReconnect()
	if err != nil {
		return "", 0, err
	}

	return "WhatsApp Client is Reconnected", 0, nil
}

// WhatsAppLoginPair pairs through an 8-character phone code instead of a QR.
func WhatsAppLoginPair(phone string) (string, int, error) {
	client, err := currentClient()
	if err != nil {
		return "", 0, err
	}

	client.Disconnect()

	if client.Store.ID == nil {
		ctx, cancel := context.WithTimeout(context.Background(), pairPhoneRequestTimeout)
		defer cancel()

		err = client.Connect()
		if err != nil {
			return "", 0, err
		}

		code, err := client.PairPhone(ctx, phone, true, whatsmeow.PairClientChrome, "Chrome ("+runtime.GOOS+")")
		if err != nil {
			return "", 0, err
		}

		return code, 160, nil
	}

	err = WhatsAppReconnect()
	if err != nil {
		return "", 0, err
	}

	return "WhatsApp Client is Reconnected", 0, nil
}

// WhatsAppLoginTerminal renders pairing QR codes to stdout until the session
// is paired or the channel ends. Used by the startup flow when the gateway
// runs attended, without the CRM driving the login endpoint.
func WhatsAppLoginTerminal(ctx context.Context) error {
	client, err := currentClient()
	if err != nil {
		return err
	}

	if client.Store.ID != nil {
		return WhatsAppReconnect()
	}

	client.Disconnect()

	qrChan, err := client.GetQRChannel(ctx)
	if err != nil {
		return err
	}

	err = client.Connect()
	if err != nil {
		return err
	}

	for evt := range qrChan {
		switch evt.Event {
		case "code":
			qrTerminal.GenerateHalfBlock(evt.Code, qrTerminal.L, os.Stdout)
			log.Print(nil).Info("Scan the QR code above with WhatsApp, it expires in " + evt.Timeout.String())
		case whatsmeow.QRChannelSuccess.Event:
			log.Print(nil).Info("WhatsApp session paired from terminal QR")
			return nil
		case whatsmeow.QRChannelTimeout.Event:
			return errors.New("whatsapp qr channel timed out")
		case whatsmeow.QRChannelClientOutdated.Event:
			return ErrWAVersionOutdatedForQR
		case "error":
			if evt.Error != nil {
				return evt.Error
			}
			return errors.New("whatsapp qr channel reported an unspecified error")
		}
	}

	return nil
}

func WhatsAppReconnect() error {
	client, err := currentClient()
	if err != nil {
		return err
	}

	client.Disconnect()

	if client.Store.ID != nil {
		err = client.Connect()
		if err != nil {
			return err
		}

		return nil
	}

	return errors.New("WhatsApp Client Store ID is Empty, Please Re-Login and Scan QR Code Again")
}

func WhatsAppLogout() error {
	client, err := currentClient()
	if err != nil {
		return err
	}

	if client.Store.ID != nil {
		WhatsAppPresence(context.Background(), false)

		logoutCtx, logoutCancel := context.WithTimeout(context.Background(), logoutRequestTimeout)
		defer logoutCancel()

		err = client.Logout(logoutCtx)
		if err != nil {
			client.Disconnect()
			storeCtx, storeCancel := context.WithTimeout(context.Background(), stateCleanupTimeout)
			defer storeCancel()
			err = client.Store.Delete(storeCtx)
			if err != nil {
				return err
			}
		}

		stateCtx, stateCancel := context.WithTimeout(context.Background(), stateCleanupTimeout)
		defer stateCancel()
		if err := ClearSessionState(stateCtx); err != nil {
			log.SysErr("session", err).Warn("Failed to clear session state on logout")
		}

		clearClient()

		return nil
	}

	return errors.New("WhatsApp Client Store ID is Empty, Please Re-Login and Scan QR Code Again")
}

func WhatsAppIsClientOK() error {
	client, err := currentClient()
	if err != nil {
		return err
	}

	if !client.IsConnected() {
		return errors.New("WhatsApp Client is not Connected")
	}

	if !client.IsLoggedIn() {
		return errors.New("WhatsApp Client is not Logged In")
	}

	return nil
}

// SessionStatus is the connection-state record reported by /session/status.
type SessionStatus struct {
	Connected          bool                   `json:"connected"`
	LoggedIn           bool                   `json:"logged_in"`
	JID                string                 `json:"jid,omitempty"`
	PushName           string                 `json:"push_name,omitempty"`
	ReconnectAttempts  uint32                 `json:"reconnect_attempts"`
	ReconnectFailures  uint32                 `json:"reconnect_failures"`
	LastConnectedAt    *time.Time             `json:"last_connected_at,omitempty"`
	LastDisconnectedAt *time.Time             `json:"last_disconnected_at,omitempty"`
	MessageCache       MessageCacheStats      `json:"message_cache"`
	WAVersion          WAVersionRefreshStatus `json:"wa_version"`
}

func WhatsAppSessionStatus() SessionStatus {
	status := SessionStatus{
		MessageCache: messageCache.Stats(),
		WAVersion:    WhatsAppGetWAVersionRefreshStatus(),
	}

	client, err := currentClient()
	if err == nil {
		status.Connected = client.IsConnected()
		status.LoggedIn = client.IsLoggedIn()
		if client.Store.ID != nil {
			status.JID = maskJIDForLog(client.Store.ID.String())
			status.PushName = client.Store.PushName
		}
	}

	attempts, failures, connectedAt, disconnectedAt := reconnectCounters()
	status.ReconnectAttempts = attempts
	status.ReconnectFailures = failures
	status.LastConnectedAt = connectedAt
	status.LastDisconnectedAt = disconnectedAt

	return status
}

func WhatsAppPresence(ctx context.Context, isAvailable bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return
	}
	if isAvailable {
		_ = client.SendPresence(ctx, types.PresenceAvailable)
	} else {
		_ = client.SendPresence(ctx, types.PresenceUnavailable)
	}
}

func WhatsAppComposeStatus(ctx context.Context, rjid types.JID, isComposing bool, isAudio bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	var typeCompose types.ChatPresence
	if isComposing {
		typeCompose = types.ChatPresenceComposing
	} else {
		typeCompose = types.ChatPresencePaused
	}

	var typeComposeMedia types.ChatPresenceMedia
	if isAudio {
		typeComposeMedia = types.ChatPresenceMediaAudio
	} else {
		typeComposeMedia = types.ChatPresenceMediaText
	}

	client, err := currentClient()
	if err != nil {
		return
	}
	_ = client.SendChatPresence(ctx, rjid, typeCompose, typeComposeMedia)
}
