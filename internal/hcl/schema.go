package hcl

// fileRoot is the shape of a single loader configuration file:
//
//	base_url = "js"
//	paths    = { lib = "lib" }
//
//	shim "lib/bootstrap" {
//	  deps = ["lib/jquery"]
//	}
//
//	require = ["client"]
type fileRoot struct {
	BaseURL     *string           `hcl:"base_url,optional"`
	Paths       map[string]string `hcl:"paths,optional"`
	Require     []string          `hcl:"require,optional"`
	WaitSeconds *int              `hcl:"wait_seconds,optional"`
	URLArgs     *string           `hcl:"url_args,optional"`
	Shims       []*shimBlock      `hcl:"shim,block"`
}

// shimBlock is the HCL-specific schema of a `shim` block.
type shimBlock struct {
	Name    string   `hcl:"name,label"`
	Deps    []string `hcl:"deps,optional"`
	Exports *string  `hcl:"exports,optional"`
}
