package app

import (
	"fmt"

	"jpx-history/src/config"
	"jpx-history/src/data_source/jpx"
	"jpx-history/src/data_source/yahoo"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/network"
	"jpx-history/src/pipeline"
	"jpx-history/src/storage"
)

// App holds the wired components shared by every entry point.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Store   interfaces.IStore
	Network interfaces.INetworkManager

	MasterSource  *jpx.JPXMasterSource
	HistorySource *yahoo.YahooHistorySource

	Builder *pipeline.MasterBuilder
	Fetcher *pipeline.HistoryFetcher
	Driver  *pipeline.BatchDriver
	Service *pipeline.Service
}

// -----------------------------------------------------------------------------

// Bootstrap loads the config file and wires storage, network, sources and the
// update pipeline. Callers must Close the App.
func Bootstrap(configPath string) (*App, error) {
	// 1. Config
	conf, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}

	// 2. Logger
	appLogger := logger.NewLogger(conf, conf.Name)

	// 3. Components
	return Setup(conf, appLogger)
}

// Setup wires an App from an already loaded config.
func Setup(conf *config.Config, appLogger *logger.Logger) (*App, error) {
	store, err := setupStore(conf, appLogger)
	if err != nil {
		return nil, err
	}

	netMgr := setupNetwork(conf, appLogger)

	a := &App{
		Config:        conf,
		Logger:        appLogger,
		Store:         store,
		Network:       netMgr,
		MasterSource:  jpx.NewJPXMasterSource(conf.Sources.MasterURL, netMgr, appLogger.Named("JPXMaster")),
		HistorySource: yahoo.NewYahooHistorySource(conf, netMgr, appLogger.Named("YahooHistory")),
	}

	a.Builder = pipeline.NewMasterBuilder(a.MasterSource, store, appLogger.Named("MasterBuilder"))
	a.Fetcher = pipeline.NewHistoryFetcher(conf, store, a.HistorySource, appLogger.Named("HistoryFetcher"))
	a.Driver = pipeline.NewBatchDriver(store, a.Fetcher, conf.History.Market, conf.Batch.MaxConsecutiveErrors, appLogger.Named("BatchDriver"))
	a.Service = pipeline.NewService(a.Builder, a.Driver, appLogger.Named("Service"))
	return a, nil
}

// -----------------------------------------------------------------------------

// setupStore opens the backend named by storage.db_type
func setupStore(conf *config.Config, appLogger *logger.Logger) (interfaces.IStore, error) {
	store, err := storage.OpenStore(conf.MConfig, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", conf.Storage.DBType, err)
	}
	return store, nil
}

// setupNetwork initializes the network manager
func setupNetwork(conf *config.Config, appLogger *logger.Logger) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(conf.MConfig, appLogger.Named("NetworkManager"))
}

// -----------------------------------------------------------------------------

func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Warning("closing store: %v", err)
	}
}
