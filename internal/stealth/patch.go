package stealth

// Patch is the JavaScript bootstrap evaluated on every new document in
// undetected mode. It hides navigator.webdriver, restores the plugin and
// language lists that headless builds leave empty, shims the chrome runtime
// object and fixes the permissions API inconsistency that detection scripts
// use to spot automated browsers.
const Patch = `(function () {
  try {
    Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
  } catch (e) {}

  try {
    if (!window.chrome) {
      window.chrome = {};
    }
    if (!window.chrome.runtime) {
      window.chrome.runtime = {};
    }
  } catch (e) {}

  try {
    if (navigator.plugins.length === 0) {
      Object.defineProperty(navigator, 'plugins', {
        get: () => [
          { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer' },
          { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
          { name: 'Native Client', filename: 'internal-nacl-plugin' }
        ]
      });
    }
  } catch (e) {}

  try {
    if (navigator.languages.length === 0) {
      Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
    }
  } catch (e) {}

  try {
    var originalQuery = window.navigator.permissions.query.bind(window.navigator.permissions);
    window.navigator.permissions.query = function (parameters) {
      if (parameters && parameters.name === 'notifications') {
        return Promise.resolve({ state: Notification.permission, onchange: null });
      }
      return originalQuery(parameters);
    };
  } catch (e) {}

  try {
    // Headless builds report 0 for both; real hardware never does.
    if (navigator.hardwareConcurrency === 0) {
      Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => 4 });
    }
  } catch (e) {}
})();`
