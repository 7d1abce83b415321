package dotenv

import (
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

const (
	EnvName = "INSTAG_ENV"

	DevEnv  = "dev"
	TestEnv = "test"
	ProdEnv = "prod"
)

// Load loads the .env file following the convention: https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only need to be called once in main function, other code can use env through os.Getenv('ENV_NAME') during runtime
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

// CurrentEnv returns the runtime env, "dev" when unset.
func CurrentEnv() string {
	env := os.Getenv(EnvName)
	if env == "" {
		return DevEnv
	}
	return env
}

func IsProdEnv() bool {
	return CurrentEnv() == ProdEnv
}

func loadDotEnvs(rootPath string) {
	env := CurrentEnv()

	// .env.[runtime_env].local has highest priority, usually contains username and password and other sensitive information
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[runtime_env] usually contains db connection information
	godotenv.Load(rootPath + ".env." + env)
	// .env usually contains shared variables(which might be overwritten by envs above)
	godotenv.Load(rootPath + ".env")
}

// Have to write this helper function due to a known issue of godotenv
// https://github.com/joho/godotenv/issues/43
func LoadDotEnvsInTests() error {
	re := regexp.MustCompile(`^(.*instag)`)
	cwd, _ := os.Getwd()
	rootPath := re.Find([]byte(cwd))

	godotenv.Load(string(rootPath) + "/" + ".env.test")
	return nil
}
