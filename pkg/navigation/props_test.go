package navigation

import (
	"context"
	"errors"
	"reflect"
	"testing"

	naverrors "github.com/go-drift/navstate/pkg/errors"
)

func TestControlledPropConflicts(t *testing.T) {
	parent := newTestContainer(t, &stackRouter{}, Props[stack, stackAction]{})
	nav := parent.Navigation()

	tests := []struct {
		name  string
		props Props[stack, stackAction]
		want  []string
	}{
		{"handle only", Props[stack, stackAction]{Navigation: nav}, nil},
		{"handle with screen props", Props[stack, stackAction]{Navigation: nav, ScreenProps: map[string]int{"a": 1}}, nil},
		{"persistence key", Props[stack, stackAction]{Navigation: nav, PersistenceKey: "nav"}, []string{"persistenceKey"}},
		{"several", Props[stack, stackAction]{
			Navigation:              nav,
			OnNavigationStateChange: func(prev, next *stack, a stackAction) {},
			URIPrefix:               "myapp://",
			Detached:                true,
		}, []string{"onNavigationStateChange", "uriPrefix", "detached"}},
		{"all", Props[stack, stackAction]{
			Navigation:              nav,
			PersistenceKey:          "nav",
			OnNavigationStateChange: func(prev, next *stack, a stackAction) {},
			URIPrefix:               "myapp://",
			RenderLoading:           func() any { return nil },
			Detached:                true,
			DisableURLHandling:      true,
			OnPersistError:          func(error) {},
		}, []string{
			"persistenceKey", "onNavigationStateChange", "uriPrefix", "renderLoadingExperimental",
			"detached", "disableURLHandling", "onPersistError",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New[stack, stackAction](&stackRouter{}, tt.props)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("New: %v", err)
				}
				return
			}
			var conflict *naverrors.ConfigurationConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("New error = %v, want ConfigurationConflictError", err)
			}
			if !reflect.DeepEqual(conflict.Keys, tt.want) {
				t.Errorf("Keys = %v, want %v", conflict.Keys, tt.want)
			}
		})
	}
}

func TestStatefulPropsNeverConflict(t *testing.T) {
	props := Props[stack, stackAction]{
		PersistenceKey: "nav",
		URIPrefix:      "myapp://",
		Detached:       true,
	}
	if err := props.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil without a handle", err)
	}
}

func TestUpdateRevalidates(t *testing.T) {
	parent := newTestContainer(t, &stackRouter{}, Props[stack, stackAction]{})
	child := newTestContainer(t, &stackRouter{}, Props[stack, stackAction]{Navigation: parent.Navigation()})

	var conflict *naverrors.ConfigurationConflictError
	err := child.Update(Props[stack, stackAction]{Navigation: parent.Navigation(), PersistenceKey: "nav"})
	if !errors.As(err, &conflict) || !reflect.DeepEqual(conflict.Keys, []string{"persistenceKey"}) {
		t.Errorf("Update conflict = %v", err)
	}

	if err := child.Update(Props[stack, stackAction]{}); !errors.Is(err, ErrModeChange) {
		t.Errorf("Update to stateful = %v, want ErrModeChange", err)
	}
	if err := parent.Update(Props[stack, stackAction]{Navigation: child.Navigation()}); !errors.Is(err, ErrModeChange) {
		t.Errorf("Update to controlled = %v, want ErrModeChange", err)
	}
	if err := parent.Update(Props[stack, stackAction]{Detached: true}); err != nil {
		t.Errorf("valid Update = %v", err)
	}
}

func TestControlledPassThrough(t *testing.T) {
	parent := newTestContainer(t, &stackRouter{}, Props[stack, stackAction]{})
	nav := parent.Navigation()
	child := newTestContainer(t, &stackRouter{}, Props[stack, stackAction]{Navigation: nav, ScreenProps: "theme"})

	if child.Mode() != Controlled {
		t.Fatalf("Mode() = %v, want controlled", child.Mode())
	}
	select {
	case <-child.Ready():
	default:
		t.Error("controlled containers are ready immediately")
	}

	view := child.Render()
	if view.Navigation != nav || view.ScreenProps != "theme" || view.Loading {
		t.Errorf("Render() = %+v, want the parent's handle", view)
	}

	rec := &eventRecorder{}
	sub := child.AddListener(EventAction, rec.listen)
	if !child.Dispatch(push("chat")) {
		t.Fatal("controlled Dispatch should return the parent's result")
	}
	if parent.State().top() != "chat" || child.State() != nav.State() {
		t.Error("controlled Dispatch must act on the parent's state only")
	}
	if len(rec.all()) != 1 {
		t.Error("controlled listeners should register with the parent")
	}
	sub.Remove()

	child.Mount(context.Background())
	child.Unmount()
}

func TestNewRejectsNilRouter(t *testing.T) {
	if _, err := New[stack, stackAction](nil, Props[stack, stackAction]{}); err == nil {
		t.Error("New(nil router) should fail")
	}
}

func TestModeString(t *testing.T) {
	if Stateful.String() != "stateful" || Controlled.String() != "controlled" || Mode(9).String() != "unknown" {
		t.Error("unexpected Mode strings")
	}
}
