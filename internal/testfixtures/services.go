package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/appointment-planner/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks, and zone settings.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Zones       application.ZoneSettings
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// DefaultZones mirrors a London host that rounds "now" to five minutes.
func DefaultZones() application.ZoneSettings {
	return application.ZoneSettings{DefaultZone: "Europe/London", DeviceZone: "Europe/London", NowStepMinutes: 5}
}

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Zones:       DefaultZones(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithDeviceZone overrides the device zone services fall back to.
func WithDeviceZone(zone string) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Zones.DeviceZone = zone
	}
}

func (f *ServiceFactory) idGen(override func() string) func() string {
	if override != nil {
		return override
	}
	return f.IDGenerator.NextFunc()
}

func (f *ServiceFactory) now(override func() time.Time) func() time.Time {
	if override != nil {
		return override
	}
	return f.Clock.NowFunc()
}

// CategoryServiceDeps captures dependencies for constructing a category service.
type CategoryServiceDeps struct {
	Categories  application.CategoryRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewCategoryService builds a category service using the supplied dependencies.
func (f *ServiceFactory) NewCategoryService(deps CategoryServiceDeps) *application.CategoryService {
	return application.NewCategoryServiceWithLogger(deps.Categories, f.idGen(deps.IDGenerator), f.now(deps.Now), deps.Logger)
}

// AppointmentServiceDeps captures dependencies for constructing an appointment service.
type AppointmentServiceDeps struct {
	Appointments application.AppointmentRepository
	Categories   application.CategoryCatalog
	Preferences  application.PreferenceSource
	Pax          application.PaxReader
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewAppointmentService builds an appointment service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewAppointmentService(deps AppointmentServiceDeps) *application.AppointmentService {
	return application.NewAppointmentServiceWithLogger(
		deps.Appointments,
		deps.Categories,
		deps.Preferences,
		deps.Pax,
		f.Zones,
		f.idGen(deps.IDGenerator),
		f.now(deps.Now),
		deps.Logger,
	)
}

// TimeServiceDeps captures dependencies for constructing a time service.
type TimeServiceDeps struct {
	Preferences application.PreferenceSource
	Pax         application.PaxReader
	Now         func() time.Time
}

// NewTimeService builds a time service using the factory zones and clock.
func (f *ServiceFactory) NewTimeService(deps TimeServiceDeps) *application.TimeService {
	return application.NewTimeService(deps.Preferences, deps.Pax, f.Zones, f.now(deps.Now))
}

// PaxServiceDeps captures dependencies for constructing a pax service.
type PaxServiceDeps struct {
	Pax          application.PaxRepository
	Appointments application.ImportedAppointmentStore
	Categories   application.CategoryCatalog
	IDGenerator  func() string
	Logger       *slog.Logger
}

// NewPaxService builds a pax service using the supplied dependencies.
func (f *ServiceFactory) NewPaxService(deps PaxServiceDeps) *application.PaxService {
	return application.NewPaxServiceWithLogger(deps.Pax, deps.Appointments, deps.Categories, f.Zones, f.idGen(deps.IDGenerator), deps.Logger)
}

// TransferServiceDeps captures dependencies for constructing a transfer service.
type TransferServiceDeps struct {
	Store  application.SnapshotStore
	Now    func() time.Time
	Logger *slog.Logger
}

// NewTransferService builds a transfer service using the supplied dependencies.
func (f *ServiceFactory) NewTransferService(deps TransferServiceDeps) *application.TransferService {
	return application.NewTransferServiceWithLogger(deps.Store, f.Zones, f.now(deps.Now), deps.Logger)
}
