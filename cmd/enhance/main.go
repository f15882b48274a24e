package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/observability"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/pcmconv"
	"github.com/xaionaro-go/speechenhance/pkg/config"
	"github.com/xaionaro-go/speechenhance/pkg/enhancementstream"
	"github.com/xaionaro-go/speechenhance/pkg/fft/registry"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "path to a YAML config; the defaults are used if empty")
	dumpConfig := pflag.Bool("dump-config", false, "print the resulting config and exit")
	isS16Flag := pflag.Bool("s16", false, "a shorthand for '--format s16le'")
	formatFlag := pflag.String("format", audio.PCMFormatFloat32Native().String(), "the PCM format of a raw input and of the output")
	channelsFlag := pflag.Uint("channels", 1, "the amount of channels of a raw input, they are mixed down to mono")
	sampleRateFlag := pflag.Uint("sample-rate", 0, "the sample rate of a raw input; the config value is used if zero")
	modelFlag := pflag.String("model", "", "identity, spectralgate or onnx")
	onnxModelFlag := pflag.String("onnx-model", "", "path to the ONNX model (implies '--model onnx')")
	fftBackendFlag := pflag.String("fft-backend", "", fmt.Sprintf("one of %v", registry.Names()))
	blockSizeFlag := pflag.Uint("block-size", 0, "the amount of samples passed to the enhancer at once")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		assertNoError(err)
	}
	if *modelFlag != "" {
		modelType, err := config.ParseModelType(*modelFlag)
		assertNoError(err)
		cfg.Model.Type = modelType
	}
	if *onnxModelFlag != "" {
		cfg.Model.Type = config.ModelTypeONNX
		cfg.Model.ONNX.ModelPath = *onnxModelFlag
	}
	if *fftBackendFlag != "" {
		cfg.Enhancer.FFTBackend = *fftBackendFlag
	}
	if *blockSizeFlag != 0 {
		cfg.Stream.BlockSize = *blockSizeFlag
	}
	if *sampleRateFlag != 0 {
		cfg.Enhancer.SampleRate = audio.SampleRate(*sampleRateFlag)
	}
	if *dumpConfig {
		assertNoError(cfg.Write(os.Stdout))
		return
	}

	if pflag.NArg() != 2 {
		panic(fmt.Errorf("expected exactly two arguments: <input-file> <output-file>"))
	}

	if *netPprofAddr != "" {
		observability.Go(ctx, func() { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	pcmFormat, err := audio.ParsePCMFormat(*formatFlag)
	assertNoError(err)
	if *isS16Flag {
		pcmFormat = audio.PCMFormatS16LE
	}

	inputFile, err := os.Open(pflag.Arg(0))
	assertNoError(err)
	defer inputFile.Close()
	rc := datacounter.NewReaderCounter(inputFile)

	var (
		rawInput    io.Reader = rc
		inputFormat           = pcmconv.Format{
			Channels:   audio.Channel(*channelsFlag),
			SampleRate: cfg.Enhancer.SampleRate,
			PCMFormat:  pcmFormat,
		}
	)
	if strings.EqualFold(filepath.Ext(pflag.Arg(0)), ".ogg") {
		vorbisReader, err := audio.NewVorbisReader(rc)
		assertNoError(err)
		rawInput = vorbisReader
		inputFormat = pcmconv.Format{
			Channels:   vorbisReader.Channels(),
			SampleRate: vorbisReader.SampleRate(),
			PCMFormat:  vorbisReader.PCMFormat(),
		}
		cfg.Enhancer.SampleRate = vorbisReader.SampleRate()
	}
	logger.Debugf(ctx, "input format: %#+v", inputFormat)

	enhancerFormat := pcmconv.Format{
		Channels:   1,
		SampleRate: cfg.Enhancer.SampleRate,
		PCMFormat:  audio.PCMFormatFloat32Native(),
	}
	input, err := pcmconv.NewConverter(inputFormat, rawInput, enhancerFormat)
	assertNoError(err)

	enh, err := cfg.NewEnhancer(ctx)
	assertNoError(err)
	defer enh.Close()
	logger.Infof(ctx, "model: %s, latency: %d samples", cfg.Model.Type, enh.Latency())

	stream, err := enhancementstream.NewEnhancementStream(
		ctx,
		input,
		enh,
		cfg.Stream.BlockSize,
		cfg.Stream.InputBufferSize,
		cfg.Stream.OutputBufferSize,
	)
	assertNoError(err)
	defer stream.Close()

	output, err := pcmconv.NewConverter(enhancerFormat, stream, pcmconv.Format{
		Channels:   1,
		SampleRate: cfg.Enhancer.SampleRate,
		PCMFormat:  pcmFormat,
	})
	assertNoError(err)

	outputFile, err := os.OpenFile(pflag.Arg(1), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	assertNoError(err)
	defer outputFile.Close()
	wc := datacounter.NewWriterCounter(outputFile)

	startedAt := time.Now()
	_, err = io.Copy(wc, output)
	assertNoError(err)

	stats := enh.Stats()
	logger.Infof(ctx,
		"done in %v: read %d bytes, written %d bytes; samples: in %d, out %d; frames: %d; chunks: %d",
		time.Since(startedAt), rc.Count(), wc.Count(),
		stats.SamplesIn, stats.SamplesOut, stats.Frames, stats.Chunks,
	)
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
