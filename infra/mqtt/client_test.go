package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/warehouse-sim/core/monitoring"
	coremqtt "github.com/kilianp07/warehouse-sim/core/mqtt"
)

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = orig })
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(any)    {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestMissionTopic(t *testing.T) {
	assert.Equal(t, "warehouse/agents/a_1/mission", MissionTopic("", "a_1"))
	assert.Equal(t, "site-a/agents/a_1/mission", MissionTopic("site-a/", "a_1"))
}

func TestPublishMission(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", TopicPrefix: "wh", QoS: map[string]byte{"mission": 1}})
	require.NoError(t, err)

	id, err := cli.PublishMission(context.Background(), coremqtt.Mission{RunID: "r", Agent: "a_3", Path: []string{"0_0", "0_1"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, mc.published, 1)
	assert.Equal(t, "wh/agents/a_3/mission", mc.published[0].topic)
	assert.Equal(t, byte(1), mc.published[0].qos)

	var got coremqtt.Mission
	require.NoError(t, json.Unmarshal(mc.published[0].payload, &got))
	assert.Equal(t, id, got.MissionID)
	assert.Equal(t, []string{"0_0", "0_1"}, got.Path)
	assert.NotZero(t, got.Timestamp)
	assert.Equal(t, "whsim", mc.opts.ClientID)

	cli.Disconnect()
	assert.True(t, mc.disconnected)
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if !mc.opts.WillEnabled {
		t.Fatalf("will not enabled")
	}
	if mc.opts.WillTopic != "lwt" || string(mc.opts.WillPayload) != "bye" {
		t.Fatalf("will options incorrect")
	}
	cli.Disconnect()
	if len(mc.published) != 0 {
		t.Fatalf("unexpected publish on disconnect")
	}
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, err := cli.PublishMission(context.Background(), coremqtt.Mission{Agent: "a_0"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected retries")
	}
}

func TestPublishErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	withMockClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)
	_, err = cli.PublishMission(context.Background(), coremqtt.Mission{RunID: "r", Agent: "a_0"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, coremqtt.ErrPublishFailed))
	assert.Len(t, mc.published, 3)
	require.Error(t, mon.err)
	assert.Equal(t, "a_0", mon.tags["agent"])
	assert.Equal(t, "mqtt", mon.tags["module"])
}

func TestPublishStopsOnCancel(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	withMockClient(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", MaxRetries: 3, BackoffMS: 1000})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cli.PublishMission(ctx, coremqtt.Mission{Agent: "a_0"})
	require.Error(t, err)
	assert.Len(t, mc.published, 1)
}

func TestConfigValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.NoError(t, c.Validate())
	assert.Equal(t, DefaultTopicPrefix, c.TopicPrefix)
	c.Enabled = true
	assert.Error(t, c.Validate())
	c.Broker = "tcp://localhost:1883"
	assert.NoError(t, c.Validate())
}
