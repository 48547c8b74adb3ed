package loader

import "github.com/dop251/goja"

// Prelude is the AMD micro-loader installed into every host runtime
// and served to browsers by the dev server. It implements just enough
// of the AMD contract for the transform's output: define with an
// optional key, dependency resolution against a registry, an
// "exports" pseudo-dependency, and by-key loading. A factory that
// throws leaves no half-initialized module behind.
const Prelude = `(function (global) {
  var registry = {};
  var cache = {};
  function resolve(name) {
    if (Object.prototype.hasOwnProperty.call(cache, name)) {
      return cache[name].exports;
    }
    if (!Object.prototype.hasOwnProperty.call(registry, name)) {
      throw new Error("module not found: " + name);
    }
    var record = registry[name];
    var module = { exports: {} };
    cache[name] = module;
    try {
      var args = [];
      for (var i = 0; i < record.deps.length; i++) {
        var dep = record.deps[i];
        if (dep === "exports") {
          args.push(module.exports);
        } else if (dep === "require") {
          args.push(requireModule);
        } else {
          args.push(resolve(dep));
        }
      }
      var result = record.factory.apply(null, args);
      if (result !== undefined) {
        module.exports = result;
      }
    } catch (e) {
      delete cache[name];
      throw e;
    }
    return module.exports;
  }
  function requireModule(name) {
    return resolve(name);
  }
  function define(name, deps, factory) {
    if (typeof name !== "string" && typeof name !== "number") {
      factory = deps;
      deps = name;
      name = "__anonymous__";
    }
    if (typeof deps === "function") {
      factory = deps;
      deps = [];
    }
    registry[String(name)] = { deps: deps, factory: factory };
  }
  define.amd = {};
  global.define = define;
  global.require = requireModule;
  global.__twasmLoad = function (key) {
    return resolve(String(key));
  };
})(this);
`

var preludeProgram = goja.MustCompile("twasm:prelude", Prelude, true)
