package core

import (
	"testing"

	"github.com/golang/mock/gomock"
)

// ============================================================================
// Gomock Test Helpers
// ============================================================================

// setupMocks creates all collaborator mocks with gomock
func setupMocks(t *testing.T) (
	*gomock.Controller,
	*MockEnvironmentProvider,
	*MockPackageLister,
	*MockMetadataAccessor,
	*MockGroupCatalog,
) {
	ctrl := gomock.NewController(t)

	env := NewMockEnvironmentProvider(ctrl)
	lister := NewMockPackageLister(ctrl)
	metadata := NewMockMetadataAccessor(ctrl)
	groups := NewMockGroupCatalog(ctrl)

	return ctrl, env, lister, metadata, groups
}

// createMockBuilder creates a PayloadBuilder with mock dependencies. A nil
// groups catalog leaves set resolution out.
func createMockBuilder(
	policy *Policy,
	env EnvironmentProvider,
	lister PackageLister,
	metadata MetadataAccessor,
	groups GroupCatalog,
) *PayloadBuilder {
	var sets *SetResolver
	if groups != nil {
		sets = NewSetResolver(groups)
	}
	return NewPayloadBuilder(policy, env, lister, metadata, sets, BuildOptions{Workers: 2})
}

// expectEnv answers every tracked variable from vars; names missing from vars
// report as absent.
func expectEnv(env *MockEnvironmentProvider, vars map[string]string) {
	env.EXPECT().Variable(gomock.Any()).DoAndReturn(func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}).AnyTimes()
}
