// cmd/thermostat/root_test.go
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "thermostat.yaml")
	yaml := fmt.Sprintf(`
device:
  log_level: error
  store:
    driver: sqlite
    path: %s
  report:
    idle_timeout_ms: 2000
  setup:
    ssid: home
`, filepath.Join(dir, "eeprom.db"))
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestCLI_SetupSetShow(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "setup", "--config", cfg, "ident=hall", "pswd=secret")
	require.NoError(t, err)
	assert.Contains(t, out, "ident hall")

	out, err = execute(t, "set", "--config", cfg, "des_temp=22.5")
	require.NoError(t, err)
	assert.Contains(t, out, "settings changed")

	out, err = execute(t, "set", "--config", cfg, "des_temp=22.5")
	require.NoError(t, err)
	assert.Contains(t, out, "no change")

	out, err = execute(t, "show", "--config", cfg)
	require.NoError(t, err)
	assert.Regexp(t, `des_temp\s+22.5\n`, out)
	assert.Regexp(t, `ident\s+hall\n`, out)
	assert.Regexp(t, `ssid\s+home\n`, out)
	assert.Regexp(t, `rotpass\s+\*+\n`, out)
	assert.NotContains(t, out, "secret")

	_, err = execute(t, "set", "--config", cfg, "bogus=1")
	assert.Error(t, err)
}

func TestCLI_ReportAppliesResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		br := bufio.NewReader(conn)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		_, _ = io.WriteString(conn, "HTTP/1.0 200 OK\r\nContent-Length: 27\r\n\r\ndes_temp=21.5\nmode=cooling\n")
	}()

	cfg := writeConfig(t)
	_, err = execute(t, "setup", "--config", cfg, "host="+ln.Addr().String(), "rpath=/report")
	require.NoError(t, err)

	out, err := execute(t, "report", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "status 200 changed=true persisted=true")
	assert.Contains(t, out, "* mode=cooling")

	out, err = execute(t, "show", "--config", cfg)
	require.NoError(t, err)
	assert.Regexp(t, `des_temp\s+21.5\n`, out)
	assert.Regexp(t, `mode\s+cooling\n`, out)
}
