package pulsekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingInstance captures the calls the relay forwards.
type recordingInstance struct {
	calls []string
}

func (r *recordingInstance) Track(name string, props map[string]any) {
	r.calls = append(r.calls, "track:"+name)
}
func (r *recordingInstance) Page(url, title string, props map[string]any) {
	r.calls = append(r.calls, "page:"+url)
}
func (r *recordingInstance) Click(target string, props map[string]any) {
	r.calls = append(r.calls, "click:"+target)
}
func (r *recordingInstance) Identify(userID string, props map[string]any) {
	r.calls = append(r.calls, "identify:"+userID)
}
func (r *recordingInstance) SetUserProperties(props map[string]any) {
	r.calls = append(r.calls, "setUserProperties")
}
func (r *recordingInstance) CaptureError(err error, props map[string]any) {
	r.calls = append(r.calls, "captureError")
}
func (r *recordingInstance) Flush()        { r.calls = append(r.calls, "flush") }
func (r *recordingInstance) Reset()        { r.calls = append(r.calls, "reset") }
func (r *recordingInstance) Close()        { r.calls = append(r.calls, "close") }
func (r *recordingInstance) NotifyHidden() { r.calls = append(r.calls, "hidden") }
func (r *recordingInstance) SessionID() string {
	return "sess-relay"
}
func (r *recordingInstance) UserID() string { return "user-relay" }

func TestRelay_BuffersUntilAttachThenReplaysInOrder(t *testing.T) {
	relay := NewRelay()

	relay.Track("early", nil)
	relay.Identify("u1", nil)
	relay.Page("/home", "Home", nil)
	relay.Flush()

	inst := &recordingInstance{}
	assert.Empty(t, inst.calls, "nothing forwarded before attach")

	relay.Attach(inst)

	require.Equal(t, []string{"track:early", "identify:u1", "page:/home", "flush"}, inst.calls)
}

func TestRelay_DelegatesDirectlyAfterAttach(t *testing.T) {
	relay := NewRelay()
	inst := &recordingInstance{}
	relay.Attach(inst)

	relay.Track("live", nil)
	relay.Click("button", nil)

	assert.Equal(t, []string{"track:live", "click:button"}, inst.calls)
}

func TestRelay_SecondAttachIgnored(t *testing.T) {
	relay := NewRelay()
	first := &recordingInstance{}
	second := &recordingInstance{}

	relay.Attach(first)
	relay.Attach(second)
	relay.Track("x", nil)

	assert.Equal(t, []string{"track:x"}, first.calls)
	assert.Empty(t, second.calls)
}

func TestRelay_ReplayHappensOnlyOnce(t *testing.T) {
	relay := NewRelay()
	relay.Track("buffered", nil)

	inst := &recordingInstance{}
	relay.Attach(inst)
	relay.Attach(inst)

	assert.Equal(t, []string{"track:buffered"}, inst.calls)
}

func TestRelay_AccessorsBeforeAttach(t *testing.T) {
	relay := NewRelay()
	assert.Empty(t, relay.SessionID())
	assert.Empty(t, relay.UserID())

	relay.Attach(&recordingInstance{})
	assert.Equal(t, "sess-relay", relay.SessionID())
	assert.Equal(t, "user-relay", relay.UserID())
}
