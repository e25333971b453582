// Package obs speaks the obs-websocket v5 protocol to a running OBS
// Studio instance. Only the operations the co-host needs are exposed:
// scene switching, source/filter visibility, text sources, and scene
// item transforms.
package obs

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7
)

const rpcVersion = 1

const callTimeout = 5 * time.Second

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloData struct {
	RPCVersion     int `json:"rpcVersion"`
	Authentication *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type requestData struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type responseData struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan responseData

	closeOnce sync.Once
	closed    chan struct{}
}

// Connect dials OBS, performs the Hello/Identify handshake (with
// challenge auth when the server requires a password), and starts the
// response dispatcher.
func Connect(host string, port int, password string) (*Client, error) {
	url := fmt.Sprintf("ws://%s:%d", host, port)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial obs: %w", err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[string]chan responseData),
		closed:  make(chan struct{}),
	}

	if err := c.identify(password); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readLoop()

	log.Info("Connected to OBS", "url", url)
	return c, nil
}

func (c *Client) identify(password string) error {
	var env envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if env.Op != opHello {
		return fmt.Errorf("expected hello (op %d), got op %d", opHello, env.Op)
	}

	var hello helloData
	if err := json.Unmarshal(env.D, &hello); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	identify := map[string]any{"rpcVersion": rpcVersion}
	if hello.Authentication != nil {
		identify["authentication"] = buildAuth(password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}

	if err := c.writeEnvelope(opIdentify, identify); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	if err := c.conn.ReadJSON(&env); err != nil {
		return fmt.Errorf("read identified: %w", err)
	}
	if env.Op != opIdentified {
		return fmt.Errorf("identify rejected (op %d)", env.Op)
	}
	return nil
}

// buildAuth derives the obs-websocket auth string:
// base64(sha256(base64(sha256(password+salt)) + challenge)).
func buildAuth(password, salt, challenge string) string {
	secretSum := sha256.Sum256([]byte(password + salt))
	secret := base64.StdEncoding.EncodeToString(secretSum[:])
	authSum := sha256.Sum256([]byte(secret + challenge))
	return base64.StdEncoding.EncodeToString(authSum[:])
}

func (c *Client) writeEnvelope(op int, d any) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(envelope{Op: op, D: payload})
}

func (c *Client) readLoop() {
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			select {
			case <-c.closed:
			default:
				log.Error("OBS read failed", "err", err)
			}
			c.failPending()
			return
		}

		// Events (op 5) and everything else are not consumed here.
		if env.Op != opRequestResponse {
			continue
		}

		var resp responseData
		if err := json.Unmarshal(env.D, &resp); err != nil {
			log.Error("Bad OBS response", "err", err)
			continue
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.RequestID]
		delete(c.pending, resp.RequestID)
		c.pendingMu.Unlock()

		if ok {
			ch <- resp
		}
	}
}

func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) call(reqType string, data any) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan responseData, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	if err := c.writeEnvelope(opRequest, requestData{
		RequestType: reqType,
		RequestID:   id,
		RequestData: data,
	}); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("send %s: %w", reqType, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%s: connection lost", reqType)
		}
		if !resp.RequestStatus.Result {
			return nil, fmt.Errorf("%s failed: code %d %s",
				reqType, resp.RequestStatus.Code, resp.RequestStatus.Comment)
		}
		return resp.ResponseData, nil
	case <-time.After(callTimeout):
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return nil, fmt.Errorf("%s: timed out", reqType)
	}
}

func (c *Client) SetScene(name string) error {
	_, err := c.call("SetCurrentProgramScene", map[string]any{"sceneName": name})
	return err
}

func (c *Client) sceneItemID(scene, source string) (int, error) {
	raw, err := c.call("GetSceneItemId", map[string]any{
		"sceneName":  scene,
		"sourceName": source,
	})
	if err != nil {
		return 0, err
	}
	var out struct {
		SceneItemID int `json:"sceneItemId"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode scene item id: %w", err)
	}
	return out.SceneItemID, nil
}

func (c *Client) SetSourceVisibility(scene, source string, visible bool) error {
	id, err := c.sceneItemID(scene, source)
	if err != nil {
		return err
	}
	_, err = c.call("SetSceneItemEnabled", map[string]any{
		"sceneName":        scene,
		"sceneItemId":      id,
		"sceneItemEnabled": visible,
	})
	return err
}

func (c *Client) SetFilterVisibility(source, filter string, enabled bool) error {
	_, err := c.call("SetSourceFilterEnabled", map[string]any{
		"sourceName":    source,
		"filterName":    filter,
		"filterEnabled": enabled,
	})
	return err
}

func (c *Client) GetText(source string) (string, error) {
	raw, err := c.call("GetInputSettings", map[string]any{"inputName": source})
	if err != nil {
		return "", err
	}
	var out struct {
		InputSettings struct {
			Text string `json:"text"`
		} `json:"inputSettings"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode input settings: %w", err)
	}
	return out.InputSettings.Text, nil
}

func (c *Client) SetText(source, text string) error {
	_, err := c.call("SetInputSettings", map[string]any{
		"inputName":     source,
		"inputSettings": map[string]any{"text": text},
	})
	return err
}

// Transform carries the scene item transform fields the co-host cares
// about. Values are in OBS canvas units.
type Transform struct {
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	ScaleX    float64 `json:"scaleX"`
	ScaleY    float64 `json:"scaleY"`
	Rotation  float64 `json:"rotation"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

func (c *Client) GetSourceTransform(scene, source string) (Transform, error) {
	id, err := c.sceneItemID(scene, source)
	if err != nil {
		return Transform{}, err
	}
	raw, err := c.call("GetSceneItemTransform", map[string]any{
		"sceneName":   scene,
		"sceneItemId": id,
	})
	if err != nil {
		return Transform{}, err
	}
	var out struct {
		SceneItemTransform Transform `json:"sceneItemTransform"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Transform{}, fmt.Errorf("decode transform: %w", err)
	}
	return out.SceneItemTransform, nil
}

// SetSourceTransform applies a partial transform; only the keys present
// in the map are changed.
func (c *Client) SetSourceTransform(scene, source string, transform map[string]float64) error {
	id, err := c.sceneItemID(scene, source)
	if err != nil {
		return err
	}
	_, err = c.call("SetSceneItemTransform", map[string]any{
		"sceneName":          scene,
		"sceneItemId":        id,
		"sceneItemTransform": transform,
	})
	return err
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}
