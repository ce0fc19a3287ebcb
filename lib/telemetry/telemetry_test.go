package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))

	tel, err = Setup(context.Background(), "test:telemetry", Config{
		Otlp: OtlpConfig{
			Traces: OtlpConnConfig{HttpEndpoint: "http://127.0.0.1:4318/v1/traces"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
