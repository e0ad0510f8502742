package generator

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/ipcgen/internal/analyzer"
)

// Test Plan for Artifact Generation:
// - Host module imports the runtime controller, free functions and owning classes
// - Host module instantiates one singleton per owning class and binds methods
// - Client module forwards positional arguments with typed invoke calls
// - Client module renders Promise<unknown> for unannotated returns
// - Declaration module emits one Bridge interface per namespace and the
//   global window augmentation
// - Host and client agree on the full channel key set
// - Generation is deterministic across runs

func generateFixture(t *testing.T) (host, client, decls string) {
	t.Helper()

	var files []*analyzer.SourceFile
	for _, name := range []string{"types.ts", "user-service.ts", "system.ts"} {
		f, err := analyzer.ParseFile(context.Background(), filepath.Join("../../testdata/project/src", name))
		require.NoError(t, err)
		files = append(files, f)
	}
	p := analyzer.NewProgram(files, nil)
	t.Cleanup(p.Close)

	s := analyzer.NewScanner(p, analyzer.NewExtractor(p), analyzer.ScannerOptions{}, nil)
	groups := Group(s.Scan(), "mainProcess")

	g := &Generator{
		RuntimeModule: "@ipcgen/runtime",
		HostDir:       "../../testdata/project/src/generated",
		ClientDir:     "../../testdata/project/src/generated",
		TypesDir:      "../../testdata/project/src/generated",
	}
	return g.Host(groups), g.Client(groups), g.Declarations(groups)
}

func TestGenerator_Host(t *testing.T) {
	t.Parallel()

	host, _, _ := generateFixture(t)

	assert.True(t, strings.HasPrefix(host, Banner))
	assert.Contains(t, host, "import { ipcHost } from \"@ipcgen/runtime\";")
	assert.Contains(t, host, "import { getPlatform, getUptime } from \"../system\";")
	assert.Contains(t, host, "import { UserService } from \"../user-service\";")

	assert.Contains(t, host, "const userService = new UserService();")
	// One singleton, even with several exposed methods.
	assert.Equal(t, 1, strings.Count(host, "new UserService()"))

	assert.Contains(t, host, "ipcHost.register(\"mainProcess:getUptime\", getUptime);")
	assert.Contains(t, host, "ipcHost.register(\"sys:getPlatform\", getPlatform);")
	assert.Contains(t, host, "ipcHost.register(\"userAPI:getUser\", userService.getUser.bind(userService));")
	assert.Contains(t, host, "ipcHost.register(\"userAPI:listUsers\", userService.listUsers.bind(userService));")
	assert.Contains(t, host, "ipcHost.register(\"userService:countUsers\", userService.countUsers.bind(userService));")

	// Rejected functions never reach the artifact.
	assert.NotContains(t, host, "readFile")
	assert.NotContains(t, host, "badReturn")
}

func TestGenerator_Client(t *testing.T) {
	t.Parallel()

	_, client, _ := generateFixture(t)

	assert.True(t, strings.HasPrefix(client, Banner))
	assert.Contains(t, client, "import { ipcClient } from \"@ipcgen/runtime\";")
	assert.Contains(t, client, "import type { Role, User } from \"../types\";")

	assert.Contains(t, client, "export const userAPI = {")
	assert.Contains(t, client, "  getUser(id: number): Promise<User> {")
	assert.Contains(t, client, "    return ipcClient.invoke<User>(\"userAPI:getUser\", id);")

	assert.Contains(t, client, "  listUsers(role?: Role): Promise<User[]> {")
	assert.Contains(t, client, "    return ipcClient.invoke<User[]>(\"userAPI:listUsers\", role);")

	// Unannotated returns degrade to the unknown-valued wrapper.
	assert.Contains(t, client, "  countUsers(): Promise<unknown> {")
	assert.Contains(t, client, "    return ipcClient.invoke<unknown>(\"userService:countUsers\");")

	assert.Contains(t, client, "export const mainProcess = {")
	assert.Contains(t, client, "    return ipcClient.invoke<number>(\"mainProcess:getUptime\");")
	assert.Contains(t, client, "export const sys = {")
}

func TestGenerator_Declarations(t *testing.T) {
	t.Parallel()

	_, _, decls := generateFixture(t)

	assert.True(t, strings.HasPrefix(decls, Banner))
	assert.Contains(t, decls, "import type { Role, User } from \"../types\";")
	// The declaration module never imports runtime values.
	assert.NotContains(t, decls, "ipcClient")
	assert.NotContains(t, decls, "ipcHost")

	assert.Contains(t, decls, "export interface UserAPIBridge {")
	assert.Contains(t, decls, "  readonly getUser: (id: number) => Promise<User>;")
	assert.Contains(t, decls, "  readonly listUsers: (role?: Role) => Promise<User[]>;")
	assert.Contains(t, decls, "export interface MainProcessBridge {")
	assert.Contains(t, decls, "export interface SysBridge {")
	assert.Contains(t, decls, "export interface UserServiceBridge {")

	assert.Contains(t, decls, "declare global {")
	assert.Contains(t, decls, "  interface Window {")
	assert.Contains(t, decls, "    readonly userAPI: UserAPIBridge;")
	assert.Contains(t, decls, "    readonly mainProcess: MainProcessBridge;")

	assert.True(t, strings.HasSuffix(decls, "export {};\n"))
}

var channelKeyPattern = regexp.MustCompile(`"([a-zA-Z0-9]+:[a-zA-Z0-9]+)"`)

func TestGenerator_ChannelKeyAgreement(t *testing.T) {
	t.Parallel()

	host, client, _ := generateFixture(t)

	keysOf := func(artifact string) map[string]bool {
		keys := map[string]bool{}
		for _, m := range channelKeyPattern.FindAllStringSubmatch(artifact, -1) {
			keys[m[1]] = true
		}
		return keys
	}

	hostKeys := keysOf(host)
	clientKeys := keysOf(client)
	require.NotEmpty(t, hostKeys)
	assert.Equal(t, hostKeys, clientKeys)
}

func TestGenerator_Deterministic(t *testing.T) {
	t.Parallel()

	host1, client1, decls1 := generateFixture(t)
	host2, client2, decls2 := generateFixture(t)

	assert.Equal(t, host1, host2)
	assert.Equal(t, client1, client2)
	assert.Equal(t, decls1, decls2)
}
