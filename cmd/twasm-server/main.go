package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"runtime/debug"

	"github.com/kyunghoon/twasm/internal/config"
	"github.com/kyunghoon/twasm/internal/extensions/telemetry"
	"github.com/kyunghoon/twasm/internal/server"
	"github.com/kyunghoon/twasm/pkg/util"
	"github.com/spf13/pflag"
)

var version string = "dev"

func main() {
	showVersion := pflag.BoolP("version", "v", false, "print current version")
	configPath := pflag.StringP("config", "c", "", "path to config file")
	help := pflag.BoolP("help", "h", false, "show help")

	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	// get version from build info when installed using `go install`
	buildInfo, ok := debug.ReadBuildInfo()
	if ok && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		version = buildInfo.Main.Version
	}

	if version == "dev" {
		fmt.Printf("PID:%d\n", os.Getpid())
		fmt.Printf("GOMAXPROCS:%d\n", runtime.GOMAXPROCS(0))
	}

	if *showVersion {
		println(version)
		return
	}

	if !util.EnvBool("TWASM_DISABLE_BANNER") {
		fmt.Println(
			"_____________      ______ ______________ ______ \n" +
				"__  __/__  / | /| / /  __ `/_  ___/_  __ `__ \\\n" +
				"_  /_ _  /| |/ |/ // /_/ /_(__  )_  / / / / /\n" +
				"/_/   /_/ |__/|__/ \\__,_/ /____/ /_/ /_/ /_/ \n" +
				"                                              \n" +
				"twasm - TypeScript module dev server (" + version + ")\n" +
				"----------------------------------------------\n",
		)
	}
	twasmConfig, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %s\n", err)
		os.Exit(1)
	}
	logger, err := twasmConfig.GetLogger()
	if err != nil {
		fmt.Printf("Error setting up logger: %s\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	metricsHandler, shutdownTelemetry := telemetry.SetupTelemetry("twasm-server", version)
	defer shutdownTelemetry()

	srv := server.New(twasmConfig, logger.Named("server"), metricsHandler)
	srv.Start()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	<-sigchan
}
