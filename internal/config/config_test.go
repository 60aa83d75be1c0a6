package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Company.Name = "Acme Traders"
	cfg.Ledgers = LedgersConfig{Bank: "HDFC Bank", Contra: "Suspense"}
	cfg.Export.Indent = true

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Your Company Name", cfg.Company.Name)
	assert.Equal(t, "auto", cfg.Parser.Layout)
	assert.Equal(t, "TallyData.xml", cfg.Export.FileName)
	assert.Equal(t, 1, cfg.Export.VoucherStart)
	assert.False(t, cfg.Export.Indent)
	assert.False(t, cfg.Export.XMLHeader)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(20), cfg.Server.MaxUploadMB)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Ledgers.Bank)
	assert.Empty(t, cfg.Audit.Path)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("ledgers:\n  bank: SBI Current\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "SBI Current", cfg.Ledgers.Bank)
	assert.Equal(t, "auto", cfg.Parser.Layout)
	assert.Equal(t, "Your Company Name", cfg.Company.Name)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("ledgers: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestResolve_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Resolve(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestResolve_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("ledgers:\n  bank: SBI Current\n  contra: Sales\n"), 0o644))

	t.Setenv("STMT2TALLY_BANK_LEDGER", "ICICI Current")
	t.Setenv("STMT2TALLY_EXPORT_INDENT", "true")
	t.Setenv("STMT2TALLY_VOUCHER_START", "50")

	cfg, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "ICICI Current", cfg.Ledgers.Bank)
	assert.Equal(t, "Sales", cfg.Ledgers.Contra)
	assert.True(t, cfg.Export.Indent)
	assert.Equal(t, 50, cfg.Export.VoucherStart)
}

func TestResolve_BadEnv(t *testing.T) {
	t.Setenv("STMT2TALLY_VOUCHER_START", "many")
	_, err := Resolve(filepath.Join(t.TempDir(), FileName))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing environment")
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default()
	cfg.Ledgers.Bank = "HDFC Bank"
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Your Company Name")
	assert.Contains(t, contents, "bank: HDFC Bank")
	assert.Contains(t, contents, "layout: auto")
	assert.Contains(t, contents, "file_name: TallyData.xml")
	assert.NotContains(t, contents, "audit:\n    path")
}
