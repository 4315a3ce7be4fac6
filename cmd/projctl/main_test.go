package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/projctl/internal/config"
	"github.com/muurk/projctl/internal/projector"
	"github.com/muurk/projctl/internal/projector/projectortest"
	"github.com/muurk/projctl/internal/server"
	"github.com/muurk/projctl/internal/ui"
)

// fakePort is a scripted transport that records Close calls.
type fakePort struct {
	*projectortest.Transport
	closed int
}

func (p *fakePort) Close() error {
	p.closed++
	return nil
}

// testEnv swaps the registry and port opener for the duration of a test.
type testEnv struct {
	reg    *config.Registry
	port   *fakePort
	opened []string
}

func newTestEnv(t *testing.T, tr *projectortest.Transport) *testEnv {
	t.Helper()
	t.Setenv(config.PathEnvVar, filepath.Join(t.TempDir(), "config.yaml"))

	env := &testEnv{reg: config.NewRegistry(), port: &fakePort{Transport: tr}}

	origLoad, origOpen := loadRegistry, openPort
	loadRegistry = func() (*config.Registry, error) { return env.reg, nil }
	openPort = func(name string) (server.Port, error) {
		env.opened = append(env.opened, name)
		return env.port, nil
	}
	t.Cleanup(func() {
		loadRegistry, openPort = origLoad, origOpen
		resetFlags()
	})
	resetFlags()
	return env
}

// resetFlags clears flag values left behind by a previous Execute.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
		for _, sub := range c.Commands() {
			sub.Flags().VisitAll(reset)
		}
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResolveTarget_Precedence(t *testing.T) {
	reg := config.NewRegistry()
	reg.SetProfile("lecture", &config.Profile{Port: "/dev/ttyUSB0", Model: "EH470", Timeout: 8 * time.Second})
	reg.SetProfile("lab", &config.Profile{Port: "COM3", Model: "Generic"})
	reg.Preferences.DefaultProjector = "lecture"

	t.Run("default profile", func(t *testing.T) {
		got, err := resolveTarget(viper.New(), reg)
		require.NoError(t, err)
		assert.Equal(t, target{Profile: "lecture", Port: "/dev/ttyUSB0", Model: "EH470", Timeout: 8 * time.Second}, got)
	})

	t.Run("named profile uses preference timeout", func(t *testing.T) {
		v := viper.New()
		v.Set(keyProjector, "lab")
		got, err := resolveTarget(v, reg)
		require.NoError(t, err)
		assert.Equal(t, "COM3", got.Port)
		assert.Equal(t, config.DefaultTimeout, got.Timeout)
	})

	t.Run("flags override profile", func(t *testing.T) {
		v := viper.New()
		v.Set(keyPort, "/dev/ttyS1")
		v.Set(keyTimeout, 2*time.Second)
		got, err := resolveTarget(v, reg)
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyS1", got.Port)
		assert.Equal(t, "EH470", got.Model)
		assert.Equal(t, 2*time.Second, got.Timeout)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("PROJCTL_PORT", "/dev/ttyACM0")
		v := viper.New()
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
		got, err := resolveTarget(v, reg)
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyACM0", got.Port)
	})

	t.Run("unknown profile", func(t *testing.T) {
		v := viper.New()
		v.Set(keyProjector, "attic")
		_, err := resolveTarget(v, reg)
		assert.ErrorContains(t, err, "attic")
	})
}

func TestResolveTarget_Missing(t *testing.T) {
	reg := config.NewRegistry()

	_, err := resolveTarget(viper.New(), reg)
	assert.ErrorIs(t, err, errNoModel)

	v := viper.New()
	v.Set(keyModel, "EH470")
	_, err = resolveTarget(v, reg)
	assert.ErrorIs(t, err, errNoPort)

	got, err := resolveModel(v, reg)
	require.NoError(t, err)
	assert.Equal(t, "EH470", got.Model)
}

func TestPowerStatus(t *testing.T) {
	env := newTestEnv(t, projectortest.Projector(projectortest.NewClock(), true, "1"))

	out, err := execute(t, "power", "status", "--port", "/dev/ttyUSB0", "--model", "EH470")
	require.NoError(t, err)
	assert.Contains(t, out, "Power:")
	assert.Contains(t, out, "on")
	assert.Equal(t, []string{"/dev/ttyUSB0"}, env.opened)
	assert.Equal(t, 1, env.port.closed)
	// Probe and query are both power queries
	assert.Equal(t, []string{"~00124 1", "~00124 1"}, env.port.Commands())
}

func TestSourceSet(t *testing.T) {
	tr := projectortest.Projector(projectortest.NewClock(), true, "1").Reply("~0012 15", "P")
	env := newTestEnv(t, tr)

	out, err := execute(t, "source", "set", "HDMI2", "--port", "/dev/ttyUSB0", "--model", "EH470", "--json")
	require.NoError(t, err)

	var res jsonResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "source-set", res.Command)
	assert.Equal(t, true, res.Value)
	assert.Equal(t, []string{"~00124 1", "~0012 15"}, env.port.Commands())
}

func TestSourceSet_UnknownName(t *testing.T) {
	env := newTestEnv(t, projectortest.Projector(projectortest.NewClock(), true, "1"))

	_, err := execute(t, "source", "set", "DVI-D", "--port", "/dev/ttyUSB0", "--model", "EH470")
	require.Error(t, err)
	assert.True(t, projector.IsInvalidArgumentError(err))
	// Only the probe reached the wire
	assert.Equal(t, []string{"~00124 1"}, env.port.Commands())
}

func TestPowerOn_Rejected(t *testing.T) {
	tr := projectortest.Projector(projectortest.NewClock(), false, "1").Reply("~0000 1", "F")
	newTestEnv(t, tr)

	out, err := execute(t, "power", "on", "--port", "/dev/ttyUSB0", "--model", "EH470")
	assert.True(t, errors.Is(err, errRejected))
	assert.Contains(t, out, "REJECTED")
}

func TestUnknownModel_NoPortIO(t *testing.T) {
	env := newTestEnv(t, projectortest.Projector(projectortest.NewClock(), true, "1"))

	_, err := execute(t, "power", "status", "--port", "/dev/ttyUSB0", "--model", "HD9999")
	require.Error(t, err)
	assert.True(t, projector.IsInvalidArgumentError(err))
	assert.Empty(t, env.port.Written())
	assert.Equal(t, 1, env.port.closed)
}

func TestProfileUsed(t *testing.T) {
	env := newTestEnv(t, projectortest.Projector(projectortest.NewClock(), true, "8"))
	env.reg.SetProfile("lecture", &config.Profile{Port: "/dev/ttyUSB3", Model: "EH470"})

	out, err := execute(t, "source", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "HDMI2")
	assert.Equal(t, []string{"/dev/ttyUSB3"}, env.opened)
	assert.False(t, env.reg.GetProfile("lecture").LastUsed.IsZero())
}

func TestSourceList(t *testing.T) {
	env := newTestEnv(t, projectortest.NewTransport(nil))

	out, err := execute(t, "source", "list", "--model", "EH470")
	require.NoError(t, err)
	assert.Contains(t, out, "HDMI1")
	assert.Contains(t, out, "USB Display")
	assert.Contains(t, out, "19")
	assert.Empty(t, env.opened)
}

func TestModels(t *testing.T) {
	newTestEnv(t, projectortest.NewTransport(nil))

	out, err := execute(t, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "EH470")
	assert.Contains(t, out, "Generic")
}

func TestProfileAddListRemove(t *testing.T) {
	env := newTestEnv(t, projectortest.NewTransport(nil))

	_, err := execute(t, "profile", "add", "lecture", "--port", "/dev/ttyUSB0", "--model", "EH470", "--default")
	require.NoError(t, err)
	require.NotNil(t, env.reg.GetProfile("lecture"))
	assert.Equal(t, "lecture", env.reg.Preferences.DefaultProjector)

	saved, err := config.LoadRegistryFile(mustConfigPath(t))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", saved.GetProfile("lecture").Port)

	out, err := execute(t, "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "*lecture")

	_, err = execute(t, "profile", "remove", "lecture", "--yes")
	require.NoError(t, err)
	assert.Nil(t, env.reg.GetProfile("lecture"))
	assert.Empty(t, env.reg.Preferences.DefaultProjector)
}

func TestProfileAdd_Invalid(t *testing.T) {
	env := newTestEnv(t, projectortest.NewTransport(nil))

	_, err := execute(t, "profile", "add", "lecture", "--port", "/dev/ttyUSB0", "--model", "HD9999")
	assert.ErrorIs(t, err, config.ErrInvalidProfile)
	assert.Nil(t, env.reg.GetProfile("lecture"))
}

func TestServeProjectors(t *testing.T) {
	env := newTestEnv(t, projectortest.NewTransport(nil))
	env.reg.SetProfile("lecture", &config.Profile{Port: "/dev/ttyUSB0", Model: "EH470"})
	env.reg.SetProfile("lab", &config.Profile{Port: "COM3", Model: "Generic", Timeout: time.Second})

	got, err := serveProjectors(env.reg)
	require.NoError(t, err)
	assert.Equal(t, map[string]server.ProjectorConfig{
		"lab":     {Port: "COM3", Model: "Generic", Timeout: time.Second},
		"lecture": {Port: "/dev/ttyUSB0", Model: "EH470", Timeout: config.DefaultTimeout},
	}, got)
}

func TestExecShellLine(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.Projector(clock, true, "1").Reply("~0012 19", "P")
	s, err := projector.New("EH470", tr, projector.WithClock(clock.Now))
	require.NoError(t, err)

	var out bytes.Buffer
	p := ui.NewPrinter(&out)

	assert.False(t, execShellLine(s, p, "set USB Display"))
	assert.Contains(t, tr.Commands(), "~0012 19")

	assert.False(t, execShellLine(s, p, "set"))
	assert.Contains(t, out.String(), "usage: set <source>")

	assert.False(t, execShellLine(s, p, "reboot"))
	assert.Contains(t, out.String(), `unknown command "reboot"`)

	assert.False(t, execShellLine(s, p, "help"))
	assert.Contains(t, out.String(), "sources")

	assert.True(t, execShellLine(s, p, "quit"))
}

func TestExecShellLine_FailedSessionExits(t *testing.T) {
	clock := projectortest.NewClock()
	tr := projectortest.Projector(clock, true, "1").Silence("~0000 0")
	s, err := projector.New("EH470", tr, projector.WithClock(clock.Now), projector.WithTimeout(time.Second))
	require.NoError(t, err)

	var out bytes.Buffer
	assert.True(t, execShellLine(s, ui.NewPrinter(&out), "off"))
	assert.Contains(t, out.String(), "FAILED")
}

func TestCompleteShell(t *testing.T) {
	tr := projectortest.Projector(nil, true, "1")
	s, err := projector.New("EH470", tr)
	require.NoError(t, err)

	assert.Equal(t, []string{"set", "source", "sources", "status"}, completeShell(s, "s"))
	assert.Equal(t, []string{"set HDMI1", "set HDMI2"}, completeShell(s, "set hd"))
	assert.Equal(t, []string{"set USB Display"}, completeShell(s, "set U"))
}

func mustConfigPath(t *testing.T) string {
	t.Helper()
	path, err := config.GetConfigPath()
	require.NoError(t, err)
	return path
}
